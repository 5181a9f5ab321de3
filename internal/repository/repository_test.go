package repository_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/immxrtalbeast/relay_chat/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepositories(t *testing.T) map[string]repository.MessageRepository {
	t.Helper()

	sqlite, err := repository.NewSQLiteMessageRepository(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]repository.MessageRepository{
		"memory": repository.NewInMemoryMessageRepository(),
		"sqlite": sqlite,
	}
}

func TestAppendAssignsIncreasingIDsAcrossRooms(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rooms := []string{"general", "random", "general", "dev", "random"}

			var lastID int64
			for i, room := range rooms {
				msg, err := repo.Append(ctx, room, "alice", "hello")
				require.NoError(t, err)
				require.Greater(t, msg.ID, lastID, "id %d of append %d not increasing", msg.ID, i)
				lastID = msg.ID
				assert.Equal(t, room, msg.Room)
				assert.False(t, msg.CreatedAt.IsZero())
			}
		})
	}
}

func TestAppendValidation(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			cases := []struct {
				name     string
				room     string
				username string
				text     string
				want     error
			}{
				{"empty room", "  ", "alice", "hi", repository.ErrRoomRequired},
				{"empty username", "general", "   ", "hi", repository.ErrUsernameInvalid},
				{"long username", "general", strings.Repeat("x", 25), "hi", repository.ErrUsernameInvalid},
				{"empty text", "general", "alice", "   ", repository.ErrTextInvalid},
				{"long text", "general", "alice", strings.Repeat("x", 1001), repository.ErrTextInvalid},
			}
			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					_, err := repo.Append(ctx, tc.room, tc.username, tc.text)
					require.ErrorIs(t, err, tc.want)
					assert.True(t, repository.IsValidation(err))
				})
			}

			// Nothing must have been written by the rejected appends.
			page, hasMore, err := repo.Page(ctx, "general", nil, 10)
			require.NoError(t, err)
			assert.Empty(t, page)
			assert.False(t, hasMore)
		})
	}
}

func TestAppendTrimsWhitespace(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			msg, err := repo.Append(context.Background(), " general ", "  alice ", "  hi there  ")
			require.NoError(t, err)
			assert.Equal(t, "general", msg.Room)
			assert.Equal(t, "alice", msg.Username)
			assert.Equal(t, "hi there", msg.Text)
		})
	}
}

func TestAppendAcceptsBoundaryLengths(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			msg, err := repo.Append(context.Background(), "general", strings.Repeat("u", 24), strings.Repeat("t", 1000))
			require.NoError(t, err)
			assert.Len(t, msg.Username, 24)
			assert.Len(t, msg.Text, 1000)
		})
	}
}

func TestPageLatest(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ids := appendN(t, repo, "general", 5)
			appendN(t, repo, "random", 3)

			page, hasMore, err := repo.Page(ctx, "general", nil, 3)
			require.NoError(t, err)
			require.Len(t, page, 3)
			assert.True(t, hasMore)

			// Most recent three, oldest first.
			assert.Equal(t, ids[2], page[0].ID)
			assert.Equal(t, ids[3], page[1].ID)
			assert.Equal(t, ids[4], page[2].ID)
			for _, m := range page {
				assert.Equal(t, "general", m.Room)
			}
		})
	}
}

func TestPageLatestShorterThanLimit(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ids := appendN(t, repo, "general", 2)

			page, hasMore, err := repo.Page(context.Background(), "general", nil, 10)
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.False(t, hasMore)
			assert.Equal(t, ids[0], page[0].ID)
			assert.Equal(t, ids[1], page[1].ID)
		})
	}
}

func TestPageBeforeID(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ids := appendN(t, repo, "general", 6)

			page, hasMore, err := repo.Page(ctx, "general", cursor(ids[4]), 2)
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.True(t, hasMore)
			assert.Equal(t, ids[2], page[0].ID)
			assert.Equal(t, ids[3], page[1].ID)
			for _, m := range page {
				assert.Less(t, m.ID, ids[4])
			}

			// Page down to the oldest messages: no more history behind them.
			page, hasMore, err = repo.Page(ctx, "general", cursor(ids[2]), 10)
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.False(t, hasMore)
			assert.Equal(t, ids[0], page[0].ID)
		})
	}
}

func TestPageEmptyReportsNoMore(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ids := appendN(t, repo, "general", 3)

			// Unknown room.
			page, hasMore, err := repo.Page(ctx, "nowhere", nil, 10)
			require.NoError(t, err)
			assert.Empty(t, page)
			assert.False(t, hasMore)

			// Cursor below the oldest id matches nothing; even though the
			// cursor itself is out of range, an empty page reports no
			// further history.
			page, hasMore, err = repo.Page(ctx, "general", cursor(ids[0]), 10)
			require.NoError(t, err)
			assert.Empty(t, page)
			assert.False(t, hasMore)
		})
	}
}

func TestPageSuppliedCursorAlwaysApplies(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			appendN(t, repo, "general", 3)

			// A cursor of zero is a real cursor, not an absent one: no id
			// is below it, so the page is empty rather than the latest one.
			page, hasMore, err := repo.Page(ctx, "general", cursor(0), 10)
			require.NoError(t, err)
			assert.Empty(t, page)
			assert.False(t, hasMore)

			page, hasMore, err = repo.Page(ctx, "general", cursor(-5), 10)
			require.NoError(t, err)
			assert.Empty(t, page)
			assert.False(t, hasMore)
		})
	}
}

func TestSummaries(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			appendN(t, repo, "general", 3)
			appendN(t, repo, "random", 2)
			appendN(t, repo, "dev", 1)

			summaries, err := repo.Summaries(ctx, 10)
			require.NoError(t, err)
			require.Len(t, summaries, 3)

			// Ordered by last id descending: dev got the newest message.
			assert.Equal(t, "dev", summaries[0].Room)
			assert.Equal(t, "random", summaries[1].Room)
			assert.Equal(t, "general", summaries[2].Room)

			assert.Equal(t, int64(1), summaries[0].TotalMsgs)
			assert.Equal(t, int64(2), summaries[1].TotalMsgs)
			assert.Equal(t, int64(3), summaries[2].TotalMsgs)

			assert.Greater(t, summaries[0].LastID, summaries[1].LastID)
			assert.Greater(t, summaries[1].LastID, summaries[2].LastID)
			assert.False(t, summaries[0].LastAt.IsZero())
		})
	}
}

func TestSummariesLimit(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			appendN(t, repo, "a", 1)
			appendN(t, repo, "b", 1)
			appendN(t, repo, "c", 1)

			summaries, err := repo.Summaries(context.Background(), 2)
			require.NoError(t, err)
			require.Len(t, summaries, 2)
			assert.Equal(t, "c", summaries[0].Room)
			assert.Equal(t, "b", summaries[1].Room)
		})
	}
}

func cursor(id int64) *int64 {
	return &id
}

func appendN(t *testing.T, repo repository.MessageRepository, room string, n int) []int64 {
	t.Helper()

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		msg, err := repo.Append(context.Background(), room, "alice", "message")
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}
	return ids
}
