package catalog

import (
	"strings"
	"testing"

	"liria/internal/models"

	"github.com/stretchr/testify/require"
)

func book(title, author, desc string, cats ...string) models.Book {
	return models.Book{
		ID:          "test:" + strings.ToLower(title),
		Title:       title,
		Author:      author,
		Description: desc,
		Categories:  cats,
	}
}

func TestCurateDropsUnusableRecords(t *testing.T) {
	in := []models.Book{
		book("A", "Someone", "a perfectly fine description"), // title too short
		book("Valid Title", "Someone", "short"),              // no description >= 10 and no topics
		book("Kept By Description", "Someone", "a long enough description"),
		book("Kept By Topics", "Someone", "tiny", "Fiction"),
	}
	out := Curate(in)
	require.Len(t, out, 2)
	require.Equal(t, "Kept By Description", out[0].Title)
	require.Equal(t, "Kept By Topics", out[1].Title)
}

func TestCurateOrdersIndividualWorksBeforeCollections(t *testing.T) {
	in := []models.Book{
		book("Science Fiction Megapack", "Various", "fifty stories in one volume"),
		book("Hyperion", "Dan Simmons", "a pilgrimage across a doomed world"),
		book("The Complete Robot", "Isaac Asimov", "every robot story collected"),
		book("Neuromancer", "William Gibson", "console cowboys in cyberspace"),
	}
	out := Curate(in)
	titles := []string{out[0].Title, out[1].Title, out[2].Title, out[3].Title}
	require.Equal(t, []string{"Hyperion", "Neuromancer", "Science Fiction Megapack", "The Complete Robot"}, titles,
		"individual works first, collections after, fetch order preserved within groups")
}

func TestDeduplicateKeepsFirstPerTitleAuthorKey(t *testing.T) {
	in := []models.Book{
		{ID: "google:1", Title: "Dune", Author: "Frank Herbert", Description: "the google copy of dune"},
		{ID: "openlibrary:1", Title: "  dune ", Author: "FRANK HERBERT", Description: "the openlibrary copy"},
		{ID: "google:2", Title: "Dune", Author: "Brian Herbert", Description: "a different author entirely"},
	}
	out := Deduplicate(in)
	require.Len(t, out, 2)
	require.Equal(t, "google:1", out[0].ID, "first occurrence wins")
	require.Equal(t, "google:2", out[1].ID)
}

// Overlapping sources end with exactly one entry for the shared work.
func TestCurateMergesOverlappingSources(t *testing.T) {
	google := []models.Book{
		{ID: "google:dune", Title: "Dune", Author: "Frank Herbert", Description: "Paul Atreides and the spice melange.", Source: models.SourceGoogleBooks},
	}
	openlib := []models.Book{
		{ID: "openlibrary:dune", Title: "Dune", Author: "Frank Herbert", Description: "Topics: Science fiction", Source: models.SourceOpenLibrary, Categories: []string{"Science fiction"}},
	}
	out := Curate(append(google, openlib...))

	count := 0
	for _, b := range out {
		if strings.EqualFold(b.Title, "Dune") {
			count++
		}
	}
	require.Equal(t, 1, count)
	require.Equal(t, "google:dune", out[0].ID)
}

func TestCurateNoDuplicateKeysProperty(t *testing.T) {
	in := []models.Book{
		book("Dune", "Frank Herbert", "description one"),
		book("Dune Megapack", "Various", "description two"),
		book("Dune", "Frank Herbert", "description three"),
		book("dune", "frank herbert", "description four"),
		book("Foundation", "Isaac Asimov", "description five"),
	}
	out := Curate(in)
	seen := map[string]bool{}
	for _, b := range out {
		key := strings.ToLower(strings.TrimSpace(b.Title)) + "|" + strings.ToLower(strings.TrimSpace(b.Author))
		require.False(t, seen[key], "duplicate key %q survived", key)
		seen[key] = true
	}
}

func TestCurateIsDeterministic(t *testing.T) {
	in := []models.Book{
		book("Omnibus Edition", "Various", "many books in one"),
		book("Solaris", "Stanislaw Lem", "an ocean that thinks"),
		book("Roadside Picnic", "Arkady Strugatsky", "zones and stalkers"),
	}
	first := Curate(in)
	second := Curate(in)
	require.Equal(t, first, second)
}

func TestIsCollectionTitle(t *testing.T) {
	require.True(t, IsCollectionTitle("The Fantasy MEGAPACK"))
	require.True(t, IsCollectionTitle("Best of British SF"))
	require.True(t, IsCollectionTitle("Discworld Box Set"))
	require.False(t, IsCollectionTitle("The Dispossessed"))
}
