package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waifubot/models"
	"waifubot/repository/testutil"
	"waifubot/service"
)

func TestRaidRepository_Create_OnePerChat(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewRaidRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, 111, "alice", 1000)
	require.NoError(t, err)

	first := testutil.CreateTestRaid(-100, 111, 500)
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	t.Run("second open raid in same chat rejected", func(t *testing.T) {
		second := testutil.CreateTestRaid(-100, 111, 500)
		err := repo.Create(ctx, second)
		assert.ErrorIs(t, err, service.ErrRaidActive)
	})

	t.Run("other chats unaffected", func(t *testing.T) {
		other := testutil.CreateTestRaid(-200, 111, 500)
		assert.NoError(t, repo.Create(ctx, other))
	})

	t.Run("chat frees up after delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, first.ID))

		again := testutil.CreateTestRaid(-100, 111, 500)
		assert.NoError(t, repo.Create(ctx, again))
	})
}

func TestRaidRepository_Participants(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewRaidRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, 111, "alice", 1000)
	require.NoError(t, err)
	_, err = users.Create(ctx, 222, "bob", 1000)
	require.NoError(t, err)

	raid := testutil.CreateTestRaid(-100, 111, 500)
	require.NoError(t, repo.Create(ctx, raid))

	require.NoError(t, repo.AddParticipant(ctx, &models.RaidParticipant{
		RaidID: raid.ID, TelegramID: 111, Username: "alice",
	}))
	require.NoError(t, repo.AddParticipant(ctx, &models.RaidParticipant{
		RaidID: raid.ID, TelegramID: 222, Username: "bob",
	}))

	t.Run("double join rejected", func(t *testing.T) {
		err := repo.AddParticipant(ctx, &models.RaidParticipant{
			RaidID: raid.ID, TelegramID: 222, Username: "bob",
		})
		assert.ErrorIs(t, err, service.ErrAlreadyJoined)
	})

	t.Run("participants in join order", func(t *testing.T) {
		participants, err := repo.GetParticipants(ctx, raid.ID)
		require.NoError(t, err)
		require.Len(t, participants, 2)
		assert.Equal(t, int64(111), participants[0].TelegramID)
		assert.Equal(t, int64(222), participants[1].TelegramID)

		count, err := repo.CountParticipants(ctx, raid.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("participants cascade on raid delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, raid.ID))

		count, err := repo.CountParticipants(ctx, raid.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestRaidRepository_GetDue(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewRaidRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, 111, "alice", 1000)
	require.NoError(t, err)

	now := time.Now().UTC()

	due := testutil.CreateTestRaid(-100, 111, 500)
	due.JoinDeadline = now.Add(-time.Second)
	require.NoError(t, repo.Create(ctx, due))

	notDue := testutil.CreateTestRaid(-200, 111, 500)
	notDue.JoinDeadline = now.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, notDue))

	raids, err := repo.GetDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, raids, 1)
	assert.Equal(t, due.ID, raids[0].ID)

	t.Run("resolving raids are not swept twice", func(t *testing.T) {
		require.NoError(t, repo.UpdateState(ctx, due.ID, models.RaidStateResolving))

		raids, err := repo.GetDue(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, raids)
	})
}

func TestRaidRepository_SetMessageID(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewRaidRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, 111, "alice", 1000)
	require.NoError(t, err)

	raid := testutil.CreateTestRaid(-100, 111, 500)
	require.NoError(t, repo.Create(ctx, raid))

	require.NoError(t, repo.SetMessageID(ctx, raid.ID, 4242))

	got, err := repo.GetByID(ctx, raid.ID)
	require.NoError(t, err)
	assert.Equal(t, 4242, got.MessageID)

	assert.Error(t, repo.SetMessageID(ctx, 999999, 1), "unknown raid is an error")
}
