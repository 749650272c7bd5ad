package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-reservations/models"
)

func tableNumbers(tables []models.Table) []string {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.TableNumber)
	}
	return out
}

func TestFindAvailableTablesBestFit(t *testing.T) {
	env := newTestEnv(t)
	env.addTables(t, map[string]int{"T8": 8, "T2": 2, "T6": 6, "T4": 4})

	free, err := env.engine.Availability.FindAvailableTables(context.Background(), "2024-06-11", "19:00", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"T4", "T6", "T8"}, tableNumbers(free))
}

func TestFindAvailableTablesTieBreakByNumber(t *testing.T) {
	env := newTestEnv(t)
	env.addTables(t, map[string]int{"B1": 4, "A2": 4, "A1": 4})

	free, err := env.engine.Availability.FindAvailableTables(context.Background(), "2024-06-11", "19:00", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "B1"}, tableNumbers(free))
}

func TestFindAvailableTablesValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.Availability.FindAvailableTables(ctx, "2024-06-30", "11:30", 0)
	assert.True(t, errors.Is(err, ErrInvalidDate), "date is checked first")

	_, err = env.engine.Availability.FindAvailableTables(ctx, "2024-06-11", "11:30", 0)
	assert.True(t, errors.Is(err, ErrInvalidTime), "time is checked second")

	_, err = env.engine.Availability.FindAvailableTables(ctx, "2024-06-11", "12:00", 0)
	assert.True(t, errors.Is(err, ErrInvalidPartySize))
}

func TestFindAvailableTablesIgnoresInactiveReservations(t *testing.T) {
	env := newTestEnv(t)
	env.addTables(t, map[string]int{"T1": 4})
	ctx := context.Background()

	r, err := env.engine.Reservations.Create(ctx, booking("2024-06-11", "18:00", 2))
	require.NoError(t, err)

	free, err := env.engine.Availability.FindAvailableTables(ctx, "2024-06-11", "18:00", 2)
	require.NoError(t, err)
	assert.Empty(t, free, "an empty result is not an error")

	_, err = env.engine.Reservations.Cancel(ctx, r.ID)
	require.NoError(t, err)

	free, err = env.engine.Availability.FindAvailableTables(ctx, "2024-06-11", "18:00", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, tableNumbers(free))

	free, err = env.engine.Availability.FindAvailableTables(ctx, "2024-06-11", "19:00", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, tableNumbers(free), "other hours are separate slots")
}

func TestFindAvailableTablesSkipsOccupiedOnlyWhenImminent(t *testing.T) {
	env := newTestEnv(t)
	env.addTables(t, map[string]int{"T1": 4, "T2": 4})
	ctx := context.Background()

	_, err := env.engine.Tables.SetStatus(ctx, "T1", models.TableOccupied, "staff")
	require.NoError(t, err)

	free, err := env.engine.Availability.FindAvailableTables(ctx, "2024-06-10", "18:00", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2"}, tableNumbers(free))

	env.at(17, 40)
	free, err = env.engine.Availability.FindAvailableTables(ctx, "2024-06-10", "18:00", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"T2"}, tableNumbers(free))
}

func TestAvailableSlots(t *testing.T) {
	env := newTestEnv(t)
	env.addTables(t, map[string]int{"T1": 2, "T2": 4})
	ctx := context.Background()

	_, err := env.engine.Reservations.Create(ctx, booking("2024-06-10", "18:00", 4))
	require.NoError(t, err)

	slots, err := env.engine.Availability.AvailableSlots(ctx, "2024-06-10", 3)
	require.NoError(t, err)
	require.Len(t, slots, 10)
	for _, s := range slots {
		if s.Time == "18:00" {
			assert.Equal(t, 0, s.FreeTables)
			continue
		}
		assert.Equal(t, 1, s.FreeTables, s.Time)
	}

	_, err = env.engine.Availability.AvailableSlots(ctx, "2024-06-10", 0)
	assert.True(t, errors.Is(err, ErrInvalidPartySize))
}

func TestScenarioAOnlyTableIsTaken(t *testing.T) {
	env := newTestEnv(t)
	env.addTables(t, map[string]int{"T1": 4})
	ctx := context.Background()

	r, err := env.engine.Reservations.Create(ctx, booking("2024-06-10", "18:00", 4))
	require.NoError(t, err)
	require.NotNil(t, r.TableNumber)
	assert.Equal(t, "T1", *r.TableNumber)
	assert.Equal(t, models.ReservationPending, r.Status)

	_, err = env.engine.Reservations.Create(ctx, booking("2024-06-10", "18:00", 2))
	assert.True(t, errors.Is(err, ErrNoAvailability), "got %v", err)
}

func TestScenarioBEightDaysAhead(t *testing.T) {
	env := newTestEnv(t)
	env.addTables(t, map[string]int{"T1": 4})

	for _, clock := range []string{"11:00", "18:00", "11:30"} {
		for _, party := range []int{1, 4, 40} {
			_, err := env.engine.Reservations.Create(context.Background(), booking("2024-06-18", clock, party))
			assert.True(t, errors.Is(err, ErrInvalidDate), "%s party %d: %v", clock, party, err)
		}
	}
}

func TestScenarioCHalfHour(t *testing.T) {
	env := newTestEnv(t)
	env.addTables(t, map[string]int{"T1": 4})

	_, err := env.engine.Reservations.Create(context.Background(), booking("2024-06-11", "11:30", 2))
	assert.True(t, errors.Is(err, ErrInvalidTime))
	assert.Equal(t, "time", Detail(err)["field"])
}

func TestScenarioDManualTableAlreadyBooked(t *testing.T) {
	env := newTestEnv(t)
	env.addTables(t, map[string]int{"T1": 4, "T2": 4})
	ctx := context.Background()

	in := booking("2024-06-11", "19:00", 2)
	in.TableNumber = strPtr("T1")
	_, err := env.engine.Reservations.Create(ctx, in)
	require.NoError(t, err)

	_, err = env.engine.Reservations.Create(ctx, in)
	assert.True(t, errors.Is(err, ErrTableUnavailable), "got %v", err)
	assert.Equal(t, "table_number", Detail(err)["field"])
}

func TestManualAssignmentFailures(t *testing.T) {
	env := newTestEnv(t)
	env.addTables(t, map[string]int{"T1": 2})
	ctx := context.Background()

	in := booking("2024-06-11", "19:00", 4)
	in.TableNumber = strPtr("T1")
	_, err := env.engine.Reservations.Create(ctx, in)
	assert.True(t, errors.Is(err, ErrTableUnavailable))
	assert.Equal(t, "party_size", Detail(err)["field"])

	in.TableNumber = strPtr("T99")
	_, err = env.engine.Reservations.Create(ctx, in)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAssignerMode(t *testing.T) {
	assert.Equal(t, AssignAutomatic, Mode(nil))
	assert.Equal(t, AssignAutomatic, Mode(strPtr("")))
	assert.Equal(t, AssignManual, Mode(strPtr("T1")))
}
