package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
)

func newResolver() *Resolver {
	return NewResolver(testLedger(), nil, DefaultCompanyCutoff, DefaultFieldCutoff)
}

func TestResolver_CompaniesExactAnyCase(t *testing.T) {
	r := newResolver()

	for _, u := range []string{"acme", "ACME revenue", "how is AcMe doing"} {
		conv := entities.NewConversation("s")
		res, err := r.Companies(context.Background(), conv, u)

		require.NoError(t, err)
		assert.True(t, res.Found, u)
		assert.Equal(t, []string{"Acme"}, res.Companies, u)
	}
}

func TestResolver_CompaniesLedgerOrder(t *testing.T) {
	r := newResolver()
	conv := entities.NewConversation("s")

	res, err := r.Companies(context.Background(), conv, "globex versus acme")

	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, res.Companies)
}

func TestResolver_CompaniesFuzzyDeduplicated(t *testing.T) {
	r := newResolver()
	conv := entities.NewConversation("s")

	res, err := r.Companies(context.Background(), conv, "globx and glbex")

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []string{"Globex"}, res.Companies)
}

func TestResolver_CompaniesFuzzyNonASCII(t *testing.T) {
	ledger := &mockLedger{records: []entities.Record{
		rec("Société", 2023, map[string]int64{"Total Revenue": 1}),
	}}
	r := NewResolver(ledger, nil, DefaultCompanyCutoff, DefaultFieldCutoff)
	conv := entities.NewConversation("s")

	res, err := r.Companies(context.Background(), conv, "societé revenue")

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []string{"Société"}, res.Companies)
}

func TestResolver_CompaniesFallBackToMemory(t *testing.T) {
	r := newResolver()
	conv := entities.NewConversation("s")
	conv.Companies = []string{"Hooli"}

	res, err := r.Companies(context.Background(), conv, "revenue please")

	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, []string{"Hooli"}, res.Companies)
	assert.Equal(t, []string{"Hooli"}, conv.Companies)
}

func TestResolver_YearsOrderAndDuplicates(t *testing.T) {
	r := newResolver()
	conv := entities.NewConversation("s")

	res := r.Years(conv, "2023 then 2021 then 2023 but not 1999 or 20234")

	assert.True(t, res.Found)
	assert.Equal(t, []int{2023, 2021, 2023}, res.Years)
	assert.Equal(t, []int{2023, 2021, 2023}, conv.Years)
}

func TestResolver_YearsReplaceMemory(t *testing.T) {
	r := newResolver()
	conv := entities.NewConversation("s")
	conv.Years = []int{2020, 2021}

	res := r.Years(conv, "what about 2022")
	assert.Equal(t, []int{2022}, conv.Years)
	assert.True(t, res.Found)

	res = r.Years(conv, "and now?")
	assert.False(t, res.Found)
	assert.Equal(t, []int{2022}, res.Years)
}

func TestResolver_FieldFirstAliasWins(t *testing.T) {
	r := newResolver()
	conv := entities.NewConversation("s")

	// "ni" inside "unilever" comes before "total revenue" in the table
	res := r.Field(conv, "unilever total revenue")

	assert.True(t, res.Found)
	assert.Equal(t, entities.NetIncome, res.Field)
}

func TestResolver_FieldAliases(t *testing.T) {
	r := newResolver()
	cases := map[string]entities.Field{
		"acme cf":             entities.CashFlow,
		"show me cashflow":    entities.CashFlow,
		"what are the debts":  entities.TotalLiabilities,
		"profit please":       entities.NetIncome,
		"total assets":        entities.TotalAssets,
		"liabilities of acme": entities.TotalLiabilities,
	}
	for u, want := range cases {
		res := r.Field(entities.NewConversation("s"), u)
		assert.True(t, res.Found, u)
		assert.Equal(t, want, res.Field, u)
	}
}

func TestResolver_FieldFuzzy(t *testing.T) {
	r := newResolver()
	conv := entities.NewConversation("s")

	res := r.Field(conv, "debt")

	assert.True(t, res.Found)
	assert.Equal(t, entities.TotalLiabilities, res.Field)
	assert.Equal(t, entities.TotalLiabilities, conv.Field)
}

func TestResolver_FieldFromMemory(t *testing.T) {
	r := newResolver()
	conv := entities.NewConversation("s")
	conv.Field = entities.CashFlow

	res := r.Field(conv, "acme 2022")

	assert.False(t, res.Found)
	assert.Equal(t, entities.CashFlow, res.Field)
}

func TestResolver_FieldNone(t *testing.T) {
	r := newResolver()

	res := r.Field(entities.NewConversation("s"), "acme 2022")

	assert.False(t, res.Found)
	assert.Equal(t, entities.NoField, res.Field)
}

func TestResolver_CustomAliasTable(t *testing.T) {
	r := NewResolver(testLedger(), []entities.FieldAlias{
		{Alias: "sales", Field: entities.TotalRevenue},
	}, DefaultCompanyCutoff, DefaultFieldCutoff)

	res := r.Field(entities.NewConversation("s"), "acme sales")
	assert.Equal(t, entities.TotalRevenue, res.Field)

	// default aliases are gone
	res = r.Field(entities.NewConversation("s"), "acme net income 2022")
	assert.False(t, res.Found)
}

func TestHasComparisonKeyword(t *testing.T) {
	assert.True(t, HasComparisonKeyword("has it GONE UP"))
	assert.True(t, HasComparisonKeyword("did revenue worsen or improved"))
	assert.False(t, HasComparisonKeyword("acme revenue 2022"))
}
