package queryview

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID       string    `json:"id"`
	Merchant string    `json:"merchant"`
	Amount   float64   `json:"amount"`
	Count    int       `json:"count"`
	Created  time.Time `json:"createdAt"`
	Note     *string   `json:"note,omitempty"`
	internal string
}

func recordID(r record) string { return r.ID }

func makeRecords(n int) []record {
	out := make([]record, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = record{
			ID:       fmt.Sprintf("r%02d", i),
			Merchant: fmt.Sprintf("Shop %02d", i),
			Amount:   float64(n - i),
			Count:    i % 3,
			Created:  base.AddDate(0, 0, -i),
		}
	}
	return out
}

func ids(items []record) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.ID
	}
	return out
}

func TestSearch_ThreeOfTwentyTwo(t *testing.T) {
	recs := makeRecords(22)
	recs[3].Merchant = "ACME Hosting"
	recs[11].Merchant = "acme ads"
	note := "paid to Acme"
	recs[20].Note = &note

	v := New(recs, 5, recordID)
	v.SetPage(3)
	require.Equal(t, 3, v.Page().CurrentPage)

	v.Search("AcMe")
	p := v.Page()
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, []string{"r03", "r11", "r20"}, ids(p.Items))
}

func TestSearch_IgnoresUnexportedAndSameTermKeepsPage(t *testing.T) {
	recs := makeRecords(30)
	recs[0].internal = "needle"

	v := New(recs, 10, recordID)
	v.Search("needle")
	assert.Zero(t, v.Page().Total)

	v.Search("shop")
	v.SetPage(2)
	v.Search("shop ")
	assert.Equal(t, 2, v.Page().CurrentPage)
}

func TestSortBy_ToggleAndKinds(t *testing.T) {
	recs := makeRecords(5)
	v := New(recs, 10, recordID)

	v.SortBy("amount")
	assert.Equal(t, []string{"r04", "r03", "r02", "r01", "r00"}, ids(v.Items()))

	v.SortBy("amount")
	assert.Equal(t, Descending, v.State().SortDirection)
	assert.Equal(t, []string{"r00", "r01", "r02", "r03", "r04"}, ids(v.Items()))

	v.SortBy("createdAt")
	assert.Equal(t, Ascending, v.State().SortDirection)
	assert.Equal(t, []string{"r04", "r03", "r02", "r01", "r00"}, ids(v.Items()))

	v.SortBy("Merchant")
	assert.Equal(t, []string{"r00", "r01", "r02", "r03", "r04"}, ids(v.Items()))
}

func TestSortBy_StableOnTies(t *testing.T) {
	recs := makeRecords(6) // counts 0,1,2,0,1,2
	v := New(recs, 10, recordID)

	v.SortBy("count")
	assert.Equal(t, []string{"r00", "r03", "r01", "r04", "r02", "r05"}, ids(v.Items()))
}

func TestSortBy_DoesNotMutateSource(t *testing.T) {
	recs := makeRecords(4)
	before := append([]record(nil), recs...)

	v := New(recs, 10, recordID)
	v.SortBy("amount")
	_ = v.Page()
	v.DeleteItem("r01")

	if diff := cmp.Diff(before, recs, cmp.AllowUnexported(record{})); diff != "" {
		t.Fatalf("source mutated (-want +got):\n%s", diff)
	}
}

func TestPagination_Bounds(t *testing.T) {
	v := New(makeRecords(22), 10, recordID)

	p := v.Page()
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, p.StartIndex)
	assert.Equal(t, 10, p.EndIndex)

	v.SetPage(99)
	p = v.Page()
	assert.Equal(t, 3, p.CurrentPage)
	assert.Equal(t, 20, p.StartIndex)
	assert.Equal(t, 22, p.EndIndex)
	assert.Len(t, p.Items, 2)

	v.Next()
	assert.Equal(t, 3, v.State().CurrentPage)

	v.SetPage(-4)
	assert.Equal(t, 1, v.State().CurrentPage)
	v.Prev()
	assert.Equal(t, 1, v.State().CurrentPage)
	v.Next()
	assert.Equal(t, 2, v.State().CurrentPage)
}

func TestPagination_EmptyListHasOnePage(t *testing.T) {
	v := New[record](nil, 10, recordID)
	p := v.Page()
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Empty(t, p.Items)
}

func TestDeleteItem_LastRowOfLastPageClamps(t *testing.T) {
	v := New(makeRecords(21), 10, recordID)
	v.SetPage(3)
	require.Len(t, v.Page().Items, 1)

	assert.True(t, v.DeleteItem("r20"))

	p := v.Page()
	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Len(t, p.Items, 10)

	assert.False(t, v.DeleteItem("r20"))
}

func TestDeleteItem_WithoutIDFunc(t *testing.T) {
	v := New(makeRecords(2), 10, nil)
	assert.False(t, v.DeleteItem("r00"))
}

func TestMapRecords(t *testing.T) {
	recs := []map[string]any{
		{"id": "a", "name": "Zeta", "n": 3},
		{"id": "b", "name": "alpha", "n": 1},
		{"id": "c", "name": "Beta", "n": 2},
	}
	v := New(recs, 2, func(m map[string]any) string { return m["id"].(string) })

	v.SortBy("name")
	got := v.Items()
	assert.Equal(t, "c", got[0]["id"])
	assert.Equal(t, "a", got[1]["id"])

	v.SortBy("n")
	assert.Equal(t, "b", v.Items()[0]["id"])

	v.Search("ZET")
	assert.Equal(t, 1, v.Page().Total)
}

func TestReplaceKeepsState(t *testing.T) {
	v := New(makeRecords(30), 10, recordID)
	v.SortBy("amount")
	v.SetPage(3)

	v.Replace(makeRecords(12))
	st := v.State()
	assert.Equal(t, "amount", st.SortKey)
	assert.Equal(t, 2, st.CurrentPage)
}

func TestSortBy_StringsCompareLexicographically(t *testing.T) {
	recs := []record{
		{ID: "1", Merchant: "beta"},
		{ID: "2", Merchant: "Beta"},
		{ID: "3", Merchant: "alpha"},
		{ID: "4", Merchant: "Zulu"},
	}
	v := New(recs, 10, recordID)

	v.SortBy("merchant")
	assert.Equal(t, []string{"2", "4", "3", "1"}, ids(v.Items()))
}
