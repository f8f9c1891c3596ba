package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Yat-Muk/prism-desk/internal/infra/blob"
	"github.com/Yat-Muk/prism-desk/internal/pkg/errors"
)

func TestRulesetService_AddToRuleSet(t *testing.T) {
	ctx := context.Background()
	store := blob.NewFileStore(t.TempDir(), nil)
	svc := NewRulesetService(store, zap.NewNop())

	require.NoError(t, svc.AddToRuleSet(ctx, RulesetDirect, "DOMAIN,a.com"))
	require.NoError(t, svc.AddToRuleSet(ctx, RulesetDirect, " DOMAIN,b.com\n"))
	require.NoError(t, svc.AddToRuleSet(ctx, RulesetDirect, "DOMAIN,a.com"))

	items, err := svc.Read(ctx, RulesetDirect)
	require.NoError(t, err)
	assert.Equal(t, []string{"DOMAIN,a.com", "DOMAIN,b.com"}, items)

	raw, err := store.Read(ctx, "data/rulesets/direct.yaml")
	require.NoError(t, err)
	var doc map[string][]string
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.Equal(t, items, doc["payload"])
}

func TestRulesetService_KeepsExistingEntries(t *testing.T) {
	ctx := context.Background()
	store := blob.NewFileStore(t.TempDir(), nil)
	require.NoError(t, store.Write(ctx, "data/rulesets/reject.yaml",
		[]byte("payload:\n  - DOMAIN,ads.com\n  - DOMAIN,x.com\n  - DOMAIN,ads.com\n")))

	svc := NewRulesetService(store, nil)
	require.NoError(t, svc.AddToRuleSet(ctx, RulesetReject, "DOMAIN,x.com"))

	items, err := svc.Read(ctx, RulesetReject)
	require.NoError(t, err)
	assert.Equal(t, []string{"DOMAIN,x.com", "DOMAIN,ads.com"}, items)
}

func TestRulesetService_InvalidKind(t *testing.T) {
	svc := NewRulesetService(blob.NewFileStore(t.TempDir(), nil), nil)

	err := svc.AddToRuleSet(context.Background(), "block", "DOMAIN,a.com")
	assert.True(t, errors.Is(err, errors.ErrRulesetKindInvalid))

	err = svc.AddToRuleSet(context.Background(), RulesetProxy, "  \n")
	assert.Equal(t, "RULESET001", errors.CodeOf(err))
}
