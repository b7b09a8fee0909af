package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventFixture struct {
	svc      *EventService
	events   *fakeEventRepo
	orgs     *fakeOrganizerRepo
	regs     *fakeRegistrationRepo
	teams    *fakeTeamRepo
	orders   *fakeMerchOrderRepo
	uploader *fakeUploader
	org      *models.Organizer
}

func newEventFixture() *eventFixture {
	f := &eventFixture{
		events:   newFakeEventRepo(),
		orgs:     newFakeOrganizerRepo(),
		regs:     newFakeRegistrationRepo(),
		teams:    newFakeTeamRepo(),
		orders:   newFakeMerchOrderRepo(),
		uploader: newFakeUploader(),
	}
	f.svc = NewEventService(f.events, f.orgs, f.regs, f.teams, f.orders, f.uploader, testLogger())
	f.org = f.orgs.addActive("Robotics Club")
	return f
}

func validEventInput() EventInput {
	start := time.Now().Add(48 * time.Hour)
	end := start.Add(8 * time.Hour)
	return EventInput{
		Name:                 "Line Follower",
		Description:          "Build and race a line-following bot.",
		RegistrationDeadline: time.Now().Add(24 * time.Hour),
		StartDate:            &start,
		EndDate:              &end,
		RegistrationLimit:    50,
		Eligibility:          models.EligibilityAll,
	}
}

func TestEventCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a draft with registration open", func(t *testing.T) {
		f := newEventFixture()
		event, err := f.svc.Create(ctx, f.org.ID, validEventInput())
		require.NoError(t, err)

		assert.Equal(t, models.EventDraft, event.Status)
		assert.True(t, event.RegistrationOpen)
		assert.Equal(t, models.EventTypeNormal, event.EventType)
	})

	t.Run("disabled organizer cannot create", func(t *testing.T) {
		f := newEventFixture()
		require.NoError(t, f.orgs.UpdateStatus(ctx, f.org.ID, models.OrganizerDisabled))

		_, err := f.svc.Create(ctx, f.org.ID, validEventInput())
		assert.ErrorIs(t, err, ErrOrganizerDisabled)
	})

	t.Run("input validation", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(*EventInput)
			wantErr error
		}{
			{"blank name", func(i *EventInput) { i.Name = "  " }, ErrValidationFailed},
			{"end before start", func(i *EventInput) {
				end := i.StartDate.Add(-time.Hour)
				i.EndDate = &end
			}, ErrEventDateRangeInvalid},
			{"deadline after start", func(i *EventInput) {
				i.RegistrationDeadline = i.StartDate.Add(time.Hour)
			}, ErrEventDeadlineInvalid},
			{"negative limit", func(i *EventInput) { i.RegistrationLimit = -1 }, ErrValidationFailed},
			{"inverted team bounds", func(i *EventInput) {
				i.IsTeamEvent = true
				i.MinTeamSize = 4
				i.MaxTeamSize = 2
			}, ErrEventTeamSizeInvalid},
			{"merch event without items", func(i *EventInput) {
				i.EventType = models.EventTypeMerchandise
			}, ErrValidationFailed},
			{"merch item with negative price", func(i *EventInput) {
				i.EventType = models.EventTypeMerchandise
				i.MerchItems = []models.MerchItem{{Name: "Tee", Price: -1}}
			}, ErrValidationFailed},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newEventFixture()
				input := validEventInput()
				tt.mutate(&input)
				_, err := f.svc.Create(ctx, f.org.ID, input)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})
}

func TestEventUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("only the owner may edit", func(t *testing.T) {
		f := newEventFixture()
		event, err := f.svc.Create(ctx, f.org.ID, validEventInput())
		require.NoError(t, err)

		other := f.orgs.addActive("Music Club")
		_, err = f.svc.Update(ctx, event.ID, other.ID, validEventInput())
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})

	t.Run("locked fields after registrations exist", func(t *testing.T) {
		f := newEventFixture()
		event, err := f.svc.Create(ctx, f.org.ID, validEventInput())
		require.NoError(t, err)
		reserved, err := f.events.ReserveSeats(ctx, event.ID, 5)
		require.NoError(t, err)
		require.True(t, reserved)

		input := validEventInput()
		input.IsTeamEvent = true
		_, err = f.svc.Update(ctx, event.ID, f.org.ID, input)
		assert.ErrorIs(t, err, ErrEventHasRegistrations)

		input = validEventInput()
		input.RegistrationLimit = 3
		_, err = f.svc.Update(ctx, event.ID, f.org.ID, input)
		assert.ErrorIs(t, err, ErrEventHasRegistrations)

		input = validEventInput()
		input.RegistrationLimit = 10
		updated, err := f.svc.Update(ctx, event.ID, f.org.ID, input)
		require.NoError(t, err)
		assert.Equal(t, 10, updated.RegistrationLimit)
	})

	t.Run("cancelled event is immutable", func(t *testing.T) {
		f := newEventFixture()
		event, err := f.svc.Create(ctx, f.org.ID, validEventInput())
		require.NoError(t, err)
		_, err = f.svc.CancelEvent(ctx, event.ID, f.org.ID)
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, event.ID, f.org.ID, validEventInput())
		assert.ErrorIs(t, err, ErrEventStatusTransition)
	})
}

func TestEventLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("publish draft once", func(t *testing.T) {
		f := newEventFixture()
		event, err := f.svc.Create(ctx, f.org.ID, validEventInput())
		require.NoError(t, err)

		published, err := f.svc.Publish(ctx, event.ID, f.org.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EventPublished, published.Status)

		_, err = f.svc.Publish(ctx, event.ID, f.org.ID)
		assert.ErrorIs(t, err, ErrEventStatusTransition)
	})

	t.Run("delete only drafts", func(t *testing.T) {
		f := newEventFixture()
		event, err := f.svc.Create(ctx, f.org.ID, validEventInput())
		require.NoError(t, err)
		_, err = f.svc.Publish(ctx, event.ID, f.org.ID)
		require.NoError(t, err)

		assert.ErrorIs(t, f.svc.Delete(ctx, event.ID, f.org.ID), ErrEventStatusTransition)
	})

	t.Run("auto-complete sweeps past end dates", func(t *testing.T) {
		f := newEventFixture()
		input := validEventInput()
		past := time.Now().Add(-2 * time.Hour)
		earlier := past.Add(-8 * time.Hour)
		input.StartDate = &earlier
		input.EndDate = &past
		input.RegistrationDeadline = earlier.Add(-time.Hour)

		event, err := f.svc.Create(ctx, f.org.ID, input)
		require.NoError(t, err)
		_, err = f.svc.Publish(ctx, event.ID, f.org.ID)
		require.NoError(t, err)

		completed, err := f.svc.AutoCompleteEnded(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, completed)

		stored, err := f.events.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EventCompleted, stored.Status)
	})
}

func TestUploadPoster(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()
	event, err := f.svc.Create(ctx, f.org.ID, validEventInput())
	require.NoError(t, err)

	updated, err := f.svc.UploadPoster(ctx, event.ID, f.org.ID, "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.NotNil(t, updated.PosterURL)
	assert.Contains(t, *updated.PosterURL, "https://cdn.test/events/")

	// A second upload replaces the stored object.
	firstKey := *updated.PosterKey
	time.Sleep(time.Second + 50*time.Millisecond)
	_, err = f.svc.UploadPoster(ctx, event.ID, f.org.ID, "image/png", strings.NewReader("new-bytes"))
	require.NoError(t, err)
	assert.Contains(t, f.uploader.deleted, firstKey)
}

func TestEventAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()
	input := validEventInput()
	input.RegistrationLimit = 10
	event, err := f.svc.Create(ctx, f.org.ID, input)
	require.NoError(t, err)

	seed := []models.RegistrationStatus{
		models.RegistrationRegistered,
		models.RegistrationRegistered,
		models.RegistrationAttended,
		models.RegistrationCancelled,
	}
	for i, status := range seed {
		require.NoError(t, f.regs.Create(ctx, &models.Registration{
			EventID: event.ID, UserID: 100 + i, Status: status, TicketID: string(rune('a' + i)),
		}))
	}

	analytics, err := f.svc.Analytics(ctx, event.ID, f.org.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, analytics.RegistrationCount)
	assert.Equal(t, 1, analytics.AttendedCount)
	assert.Equal(t, 1, analytics.CancelledCount)
	assert.Equal(t, 10, analytics.SeatLimit)
	assert.InDelta(t, 0.3, analytics.FillRate, 0.001)
}

func TestExportRegistrationsCSV(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()
	event, err := f.svc.Create(ctx, f.org.ID, validEventInput())
	require.NoError(t, err)
	require.NoError(t, f.regs.Create(ctx, &models.Registration{
		EventID: event.ID, UserID: 1, Status: models.RegistrationRegistered,
		TicketID: "t-1", TeamName: "Bitwise",
	}))

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportRegistrationsCSV(ctx, event.ID, f.org.ID, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ticket_id", "name", "email", "status", "team_name", "registered_at"}, rows[0])
	assert.Equal(t, "t-1", rows[1][0])
	assert.Equal(t, "Bitwise", rows[1][4])
}

func TestTrending(t *testing.T) {
	ctx := context.Background()

	addPublished := func(t *testing.T, f *eventFixture, name string) *models.Event {
		input := validEventInput()
		input.Name = name
		event, err := f.svc.Create(ctx, f.org.ID, input)
		require.NoError(t, err)
		_, err = f.svc.Publish(ctx, event.ID, f.org.ID)
		require.NoError(t, err)
		return event
	}

	register := func(t *testing.T, f *eventFixture, eventID, userID int, ticket string) *models.Registration {
		reg := &models.Registration{
			EventID: eventID, UserID: userID, Status: models.RegistrationRegistered, TicketID: ticket,
		}
		require.NoError(t, f.regs.Create(ctx, reg))
		return reg
	}

	t.Run("ranks by registration volume", func(t *testing.T) {
		f := newEventFixture()
		popular := addPublished(t, f, "Hack Night")
		quiet := addPublished(t, f, "Quiet Workshop")

		for i := 0; i < 3; i++ {
			register(t, f, popular.ID, 10+i, "p-"+string(rune('a'+i)))
		}
		register(t, f, quiet.ID, 20, "q-a")

		trending, err := f.svc.Trending(ctx)
		require.NoError(t, err)
		require.Len(t, trending, 2)
		assert.Equal(t, popular.ID, trending[0].ID)
		assert.Equal(t, quiet.ID, trending[1].ID)
	})

	t.Run("counts only the last day", func(t *testing.T) {
		f := newEventFixture()
		stale := addPublished(t, f, "Old News")
		fresh := addPublished(t, f, "Hot Ticket")

		for i := 0; i < 3; i++ {
			reg := register(t, f, stale.ID, 10+i, "s-"+string(rune('a'+i)))
			if i > 0 {
				f.regs.backdate(reg.ID, time.Now().Add(-48*time.Hour))
			}
		}
		register(t, f, fresh.ID, 20, "f-a")
		register(t, f, fresh.ID, 21, "f-b")

		trending, err := f.svc.Trending(ctx)
		require.NoError(t, err)
		require.Len(t, trending, 2)
		assert.Equal(t, fresh.ID, trending[0].ID)
	})

	t.Run("caps the list at five", func(t *testing.T) {
		f := newEventFixture()
		for i := 0; i < 6; i++ {
			event := addPublished(t, f, "Event "+string(rune('A'+i)))
			register(t, f, event.ID, 30+i, "e-"+string(rune('a'+i)))
		}

		trending, err := f.svc.Trending(ctx)
		require.NoError(t, err)
		assert.Len(t, trending, 5)
	})
}
