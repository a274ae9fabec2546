package cms

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRelationAcceptsStringAndObject(t *testing.T) {
	t.Parallel()

	var fromString Relation
	require.NoError(t, json.Unmarshal([]byte(`"New York"`), &fromString))
	require.Equal(t, Relation{Name: "New York", Slug: "new-york"}, fromString)

	var fromObject Relation
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Fintech","slug":"fintech"}`), &fromObject))
	require.Equal(t, Relation{Name: "Fintech", Slug: "fintech"}, fromObject)

	var fromObjectNoSlug Relation
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Deep Tech"}`), &fromObjectNoSlug))
	require.Equal(t, "deep-tech", fromObjectNoSlug.Slug)

	var fromNull Relation
	require.NoError(t, json.Unmarshal([]byte(`null`), &fromNull))
	require.True(t, fromNull.IsZero())
}

func TestFlagCoercion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`1`, true},
		{`"true"`, true},
		{`"TRUE"`, true},
		{`"True"`, true},
		{`false`, false},
		{`0`, false},
		{`2`, false},
		{`"false"`, false},
		{`"yes"`, false},
		{`""`, false},
		{`null`, false},
	}
	for _, tc := range cases {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &f), "raw=%s", tc.raw)
		require.Equal(t, tc.want, f.Bool(), "raw=%s", tc.raw)
	}
}

func TestStoryDecodesLooseRelations(t *testing.T) {
	t.Parallel()

	payload := `{
		"id": 7,
		"title": "Acme raises a seed round",
		"slug": "acme-raises-seed",
		"category": "Fintech",
		"city": {"name": "Berlin", "slug": "berlin"},
		"is_featured": "true",
		"is_trending": 0,
		"published_at": "2026-08-01T09:00:00Z"
	}`
	var story Story
	require.NoError(t, json.Unmarshal([]byte(payload), &story))
	require.Equal(t, "fintech", story.Category.Slug)
	require.Equal(t, "berlin", story.City.Slug)
	require.True(t, story.Featured.Bool())
	require.False(t, story.Trending.Bool())
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	require.Equal(t, "new-york", Slugify("New York"))
	require.Equal(t, "ai-ml", Slugify("AI & ML"))
	require.Equal(t, "fintech", Slugify("Fintech"))
	require.Equal(t, "", Slugify("  "))
}

func TestSubmissionValidate(t *testing.T) {
	t.Parallel()

	valid := Submission{Name: "Acme", Website: "https://acme.example", Email: "a@acme.example"}
	require.NoError(t, valid.Validate())

	require.Error(t, Submission{Website: "x", Email: "y"}.Validate())
	require.Error(t, Submission{Name: "x", Email: "y"}.Validate())
	require.Error(t, Submission{Name: "x", Website: "y"}.Validate())
}
