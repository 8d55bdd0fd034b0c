package jobs

import (
	"context"
	"testing"
	"time"

	"agency-portal/internal/database"
	"agency-portal/internal/models"
	"agency-portal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type digestRecorder struct {
	leads []models.ContactSubmission
	calls int
}

func (d *digestRecorder) SendDigest(leads []models.ContactSubmission) error {
	d.calls++
	d.leads = leads
	return nil
}

func TestRunStaleLeadDigest(t *testing.T) {
	testutil.NewDB(t)
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	mk := func(name string, status models.LeadStatus, age time.Duration) {
		lead := models.ContactSubmission{
			Name: name, Email: name + "@x.test", Status: status, Source: models.SourceContactForm,
			CreatedAt: now.Add(-age),
		}
		require.NoError(t, database.DB.Create(&lead).Error)
	}
	mk("old", models.LeadNew, 72*time.Hour)
	mk("older", models.LeadNew, 96*time.Hour)
	mk("fresh", models.LeadNew, time.Hour)
	mk("handled", models.LeadContacted, 96*time.Hour)

	rec := &digestRecorder{}
	n, err := RunStaleLeadDigest(context.Background(), rec, now, 48*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, rec.leads, 2)
	assert.Equal(t, "older", rec.leads[0].Name)
	assert.Equal(t, "old", rec.leads[1].Name)
}

func TestRunStaleLeadDigest_NothingToSend(t *testing.T) {
	testutil.NewDB(t)

	rec := &digestRecorder{}
	n, err := RunStaleLeadDigest(context.Background(), rec, time.Now(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, rec.calls)
}

func TestScheduler_Specs(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	assert.NoError(t, s.AddStaleLeadDigest("", &digestRecorder{}, time.Hour))
	assert.NoError(t, s.AddStaleLeadDigest("0 0 8 * * *", &digestRecorder{}, time.Hour))
	assert.Error(t, s.AddStaleLeadDigest("every morning", &digestRecorder{}, time.Hour))

	s.Start()
	<-s.Stop().Done()
}
