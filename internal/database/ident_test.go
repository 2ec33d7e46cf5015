package database

import (
	"testing"

	"github.com/koustreak/dbagent/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		parts   []string
		want    string
		wantErr bool
	}{
		{"joins parts", []string{"ok_1", "sch.ema"}, "ok_1.sch.ema", false},
		{"skips empty parts", []string{"", "public", "orders"}, "public.orders", false},
		{"dollar allowed", []string{"DB$1", "S", "T"}, "DB$1.S.T", false},
		{"space rejected", []string{"bad id"}, "", true},
		{"quote rejected", []string{"public", "t'; DROP TABLE x; --"}, "", true},
		{"dash rejected", []string{"my-table"}, "", true},
		{"unicode rejected", []string{"tablé"}, "", true},
		{"all empty rejected", []string{"", ""}, "", true},
		{"no parts rejected", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateIdentifier(tt.parts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsUnsafeIdentifier(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "it''s", QuoteLiteral("it's"))
	assert.Equal(t, `a\b`, QuoteLiteral(`a\b`))
	assert.Equal(t, `a\\b''`, QuoteLiteralBackslash(`a\b'`))
	assert.Equal(t, "plain", QuoteLiteralBackslash("plain"))
}
