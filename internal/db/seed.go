package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
	"gorm.io/datatypes"
)

var seedClubs = []models.Club{
	{Name: "Abahani Limited", Slug: "abahani-limited", Status: models.ClubActive, Description: "Dhanmondi"},
	{Name: "Banani Club", Slug: "banani-club", Status: models.ClubActive, Description: "Banani"},
	{Name: "Gulshan Youth Club", Slug: "gulshan-youth-club", Status: models.ClubActive, Description: "Gulshan"},
	{Name: "AEEA (The American Club)", Slug: "aeea-the-american-club", Status: models.ClubPending},
}

// Seed writes sample clubs and an opening round of fixtures through c when
// the clubs table is empty, so the writes reach the change feed like any other.
func Seed(ctx context.Context, c remote.Client) error {
	var existing []models.Club
	if err := c.Query(ctx, models.TableClubs, remote.Query{Limit: 1}, &existing); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		log.Println("🌱 Data already exists, skipping seed.")
		return nil
	}

	clubs := make([]models.Club, len(seedClubs))
	for i, club := range seedClubs {
		if err := c.Insert(ctx, models.TableClubs, &club); err != nil {
			return fmt.Errorf("seed club %s: %w", club.Name, err)
		}
		clubs[i] = club
	}

	y, m, d := time.Now().AddDate(0, 0, 7).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	round := []struct {
		home, away int
		sport      string
		offset     int
		hour       int
	}{
		{0, 1, "football", 0, 16},
		{2, 3, "football", 0, 18},
		{0, 2, "cricket", 1, 10},
	}
	for _, r := range round {
		fx := models.Fixture{
			Sport:   r.sport,
			Team1ID: clubs[r.home].ID,
			Team2ID: clubs[r.away].ID,
			Date:    datatypes.Date(day.AddDate(0, 0, r.offset)),
			Time:    datatypes.NewTime(r.hour, 0, 0, 0),
			Venue:   "Army Stadium",
			Status:  models.FixtureScheduled,
		}
		if err := c.Insert(ctx, models.TableFixtures, &fx); err != nil {
			return fmt.Errorf("seed fixture: %w", err)
		}
	}

	log.Println("🌱 Sample data inserted successfully.")
	return nil
}
