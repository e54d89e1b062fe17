package collections

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/storage"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Banani Club", "banani-club"},
		{"AEEA (The American Club)", "aeea-the-american-club"},
		{"  Gulshan -- Youth  ", "gulshan-youth"},
		{"Old D.O.H.S. F.C.", "old-dohs-fc"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		got := Slugify(tt.name)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, false, strings.ContainsAny(got, "()"))
		assert.Equal(t, false, strings.Contains(got, "--"))
	}
}

func TestCreateClubDerivesSlug(t *testing.T) {
	f := newFixture()
	clubs := NewClubs(f.deps)

	club, err := clubs.Create(context.Background(), ClubInput{Name: "Banani Club", ContactEmail: "info@banani.club"})
	assert.Equal(t, nil, err)
	assert.Equal(t, "banani-club", club.Slug)
	assert.Equal(t, models.ClubActive, club.Status)

	got, ok := clubs.BySlug("banani-club")
	assert.Equal(t, true, ok)
	assert.Equal(t, club.ID, got.ID)
}

func TestCreateClubUploadsLogo(t *testing.T) {
	f := newFixture()
	clubs := NewClubs(f.deps)

	club, err := clubs.Create(context.Background(), ClubInput{Name: "Abahani", Logo: image(1024)})
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, f.store.Uploads())

	bucket, path, ok := f.store.Locate(club.Logo)
	assert.Equal(t, true, ok)
	assert.Equal(t, storage.BucketClubLogos, bucket)
	assert.Equal(t, true, strings.HasPrefix(path, "abahani/"))
	assert.Equal(t, true, strings.HasSuffix(path, ".jpg"))
}

func TestCreateClubValidation(t *testing.T) {
	f := newFixture()
	clubs := NewClubs(f.deps)

	tests := []struct {
		name  string
		in    ClubInput
		field string
	}{
		{"missing name", ClubInput{Name: "  "}, "name"},
		{"no slug", ClubInput{Name: "()"}, "name"},
		{"bad status", ClubInput{Name: "Abahani", Status: "banned"}, "status"},
		{"bad email", ClubInput{Name: "Abahani", ContactEmail: "nope"}, "contact_email"},
		{"large logo", ClubInput{Name: "Abahani", Logo: image(MaxLogoSize + 1)}, "logo"},
		{"not an image", ClubInput{Name: "Abahani", Logo: &Upload{Filename: "a.pdf", ContentType: "application/pdf", Data: []byte("x")}}, "logo"},
	}
	for _, tt := range tests {
		_, err := clubs.Create(context.Background(), tt.in)
		assert.Equal(t, true, errors.Is(err, ErrValidation))
		var verr *ValidationError
		assert.Equal(t, true, errors.As(err, &verr))
		assert.Equal(t, tt.field, verr.Field)
	}
	assert.Equal(t, 0, f.client.insertCount())
	assert.Equal(t, 0, f.store.Uploads())
}

func TestCreateClubDuplicateSlug(t *testing.T) {
	f := newFixture()
	clubs := NewClubs(f.deps)

	_, err := clubs.Create(context.Background(), ClubInput{Name: "Banani Club"})
	assert.Equal(t, nil, err)
	_, err = clubs.Create(context.Background(), ClubInput{Name: "banani club!"})
	assert.Equal(t, true, errors.Is(err, ErrMutation))
	assert.Equal(t, 1, len(clubs.Snapshot().Items))
}

func TestUpdateClubKeepsSlug(t *testing.T) {
	f := newFixture()
	clubs := NewClubs(f.deps)
	club, err := clubs.Create(context.Background(), ClubInput{Name: "Banani Club"})
	assert.Equal(t, nil, err)

	updated, err := clubs.Update(context.Background(), club.ID, ClubPatch{Name: ptr("Banani Sporting Club")})
	assert.Equal(t, nil, err)
	assert.Equal(t, "Banani Sporting Club", updated.Name)
	assert.Equal(t, "banani-club", updated.Slug)

	got, _ := clubs.Find(club.ID)
	assert.Equal(t, "Banani Sporting Club", got.Name)

	_, err = clubs.Update(context.Background(), club.ID, ClubPatch{})
	assert.Equal(t, true, errors.Is(err, ErrValidation))
}

func TestDeleteClub(t *testing.T) {
	f := newFixture()
	clubs := NewClubs(f.deps)
	club, err := clubs.Create(context.Background(), ClubInput{Name: "Abahani"})
	assert.Equal(t, nil, err)

	assert.Equal(t, nil, clubs.Delete(context.Background(), club.ID))
	assert.Equal(t, 0, len(clubs.Snapshot().Items))

	err = clubs.Delete(context.Background(), club.ID)
	assert.Equal(t, true, errors.Is(err, ErrMutation))
}
