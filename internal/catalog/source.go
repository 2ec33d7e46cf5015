package catalog

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"regexp"

	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/internal/filestore"
)

// Format is the encoding of a catalog file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// Source reads the raw catalog of one dialect.
type Source interface {
	ReadCatalog(ctx context.Context, dialect string) ([]byte, Format, error)
}

// candidate file names, in lookup order.
var candidates = []struct {
	file   string
	format Format
}{
	{"queries.json", FormatJSON},
	{"queries.yaml", FormatYAML},
	{"queries.yml", FormatYAML},
}

// maxCatalogSize bounds a catalog fetched from object storage.
const maxCatalogSize = 4 << 20

var dialectPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func checkDialect(dialect string) error {
	if !dialectPattern.MatchString(dialect) {
		return errs.Newf(errs.ErrKindTemplateFileNotFound, "invalid dialect name %q", dialect)
	}
	return nil
}

// DirSource reads "<dialect>/queries.{json,yaml,yml}" from a file system,
// typically os.DirFS(dir) or the embedded queries.FS.
type DirSource struct {
	fsys fs.FS
}

func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

func (s *DirSource) ReadCatalog(_ context.Context, dialect string) ([]byte, Format, error) {
	if err := checkDialect(dialect); err != nil {
		return nil, FormatJSON, err
	}
	for _, c := range candidates {
		data, err := fs.ReadFile(s.fsys, path.Join(dialect, c.file))
		if err == nil {
			return data, c.format, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, FormatJSON, errs.Wrap(errs.ErrKindTemplateFileNotFound,
				"cannot read query catalog for "+dialect, err)
		}
	}
	return nil, FormatJSON, errs.Newf(errs.ErrKindTemplateFileNotFound,
		"no query catalog for dialect %q", dialect)
}

// ObjectSource reads catalogs from an object store under
// "<prefix>/<dialect>/queries.{json,yaml,yml}".
type ObjectSource struct {
	store  filestore.Store
	bucket string
	prefix string
}

func NewObjectSource(store filestore.Store, bucket, prefix string) *ObjectSource {
	return &ObjectSource{store: store, bucket: bucket, prefix: prefix}
}

// ReadCatalog lists "<prefix>/<dialect>/" once and fetches the first
// candidate file present in the listing.
func (s *ObjectSource) ReadCatalog(ctx context.Context, dialect string) ([]byte, Format, error) {
	if err := checkDialect(dialect); err != nil {
		return nil, FormatJSON, err
	}
	dir := path.Join(s.prefix, dialect) + "/"
	objects, err := s.store.ListObjects(ctx, s.bucket, dir)
	if err != nil {
		return nil, FormatJSON, errs.Wrap(errs.ErrKindTemplateFileNotFound,
			"cannot list query catalogs in "+s.bucket+"/"+dir, err)
	}
	present := make(map[string]bool, len(objects))
	for _, o := range objects {
		present[o.Key] = true
	}

	for _, c := range candidates {
		key := dir + c.file
		if !present[key] {
			continue
		}
		data, err := s.read(ctx, key)
		if err != nil {
			return nil, FormatJSON, err
		}
		return data, c.format, nil
	}
	return nil, FormatJSON, errs.Newf(errs.ErrKindTemplateFileNotFound,
		"no query catalog for dialect %q in bucket %q", dialect, s.bucket)
}

func (s *ObjectSource) read(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.store.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTemplateFileNotFound,
			"cannot read query catalog "+s.bucket+"/"+key, err)
	}
	defer obj.Close()

	if info := obj.Info(); info != nil && info.Size > maxCatalogSize {
		return nil, errs.Newf(errs.ErrKindInvalidTemplateFormat,
			"query catalog %s/%s is %d bytes, limit is %d", s.bucket, key, info.Size, maxCatalogSize)
	}
	data, err := io.ReadAll(io.LimitReader(obj, maxCatalogSize+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTemplateFileNotFound,
			"cannot read query catalog "+s.bucket+"/"+key, err)
	}
	if len(data) > maxCatalogSize {
		return nil, errs.Newf(errs.ErrKindInvalidTemplateFormat,
			"query catalog %s/%s exceeds %d bytes", s.bucket, key, maxCatalogSize)
	}
	return data, nil
}
