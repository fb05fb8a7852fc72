package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/repository"
	"github.com/stretchr/testify/require"
)

func Test_RoomStore_CreateRoom(t *testing.T) {
	t.Run("codes are unique", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()

		// Given an existing room
		store := repository.NewRoomStore()
		room, err := store.CreateRoom(ctx, "ABCDE", "host")
		req.NoError(err)
		req.NotEmpty(room.ID)
		req.Equal(domain.EndpointID("host"), room.HostEndpointID)

		// When the code is reused
		_, err = store.CreateRoom(ctx, "ABCDE", "other")

		// Then it is rejected
		req.ErrorIs(err, domain.ErrDuplicateRoom)
	})

	t.Run("concurrent creates yield one room", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		store := repository.NewRoomStore()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.CreateRoom(ctx, "ABCDE", "host"); err == nil {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		req.Equal(1, created)
	})

	t.Run("empty code", func(t *testing.T) {
		req := require.New(t)
		_, err := repository.NewRoomStore().CreateRoom(context.Background(), "", "host")
		req.ErrorIs(err, domain.ErrInvalidInput)
	})
}

func Test_RoomStore_Participants(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given a room
	store := repository.NewRoomStore()
	room, err := store.CreateRoom(ctx, "ABCDE", "host")
	req.NoError(err)

	// When Alice joins twice under the same name
	first, err := store.CreateParticipant(ctx, "Alice", "s1", room)
	req.NoError(err)
	_, err = store.AddMember(ctx, "ABCDE", first)
	req.NoError(err)

	second, err := store.CreateParticipant(ctx, "Alice", "s2", room)
	req.NoError(err)
	updated, err := store.AddMember(ctx, "ABCDE", second)
	req.NoError(err)

	// Then both are members and the latest one wins on lookup
	req.ElementsMatch([]string{first.ID, second.ID}, updated.Members)
	found, err := store.FindParticipant(ctx, "Alice", "ABCDE")
	req.NoError(err)
	req.Equal(second.ID, found.ID)
	req.True(found.BelongsTo(updated))

	list, err := store.ListParticipants(ctx, "ABCDE")
	req.NoError(err)
	req.Len(list, 2)

	_, err = store.FindParticipant(ctx, "Bob", "ABCDE")
	req.ErrorIs(err, domain.ErrParticipantNotFound)
}

func Test_RoomStore_DeleteRoom(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given a room with a participant
	store := repository.NewRoomStore()
	room, err := store.CreateRoom(ctx, "ABCDE", "host")
	req.NoError(err)
	alice, err := store.CreateParticipant(ctx, "Alice", "s1", room)
	req.NoError(err)
	_, err = store.AddMember(ctx, "ABCDE", alice)
	req.NoError(err)

	// When it is deleted, twice
	req.NoError(store.DeleteRoom(ctx, "ABCDE"))
	req.NoError(store.DeleteRoom(ctx, "ABCDE"))

	// Then the room is gone
	_, err = store.FindRoom(ctx, "ABCDE")
	req.ErrorIs(err, domain.ErrRoomNotFound)

	// And Alice's record survives for incident history
	kept, err := store.GetParticipant(ctx, alice.ID)
	req.NoError(err)
	req.Equal("Alice", kept.Name)
	found, err := store.FindParticipant(ctx, "Alice", "ABCDE")
	req.NoError(err)
	req.Equal(alice.ID, found.ID)

	// And a stale room handle cannot take new members
	_, err = store.CreateParticipant(ctx, "Bob", "s2", room)
	req.ErrorIs(err, domain.ErrRoomNotFound)
	_, err = store.AddMember(ctx, "ABCDE", alice)
	req.ErrorIs(err, domain.ErrRoomNotFound)

	// And the code can be reused as a new incarnation
	again, err := store.CreateRoom(ctx, "ABCDE", "host")
	req.NoError(err)
	req.NotEqual(room.ID, again.ID)
	req.False(alice.BelongsTo(again))

	// And a newer Alice wins the name lookup in the new incarnation
	newAlice, err := store.CreateParticipant(ctx, "Alice", "s3", again)
	req.NoError(err)
	found, err = store.FindParticipant(ctx, "Alice", "ABCDE")
	req.NoError(err)
	req.Equal(newAlice.ID, found.ID)
	req.True(found.BelongsTo(again))
}

func Test_RoomStore_RemoveParticipant(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given a room Alice has joined
	store := repository.NewRoomStore()
	room, err := store.CreateRoom(ctx, "ABCDE", "host")
	req.NoError(err)
	alice, err := store.CreateParticipant(ctx, "Alice", "s1", room)
	req.NoError(err)
	_, err = store.AddMember(ctx, "ABCDE", alice)
	req.NoError(err)

	// When her join is rolled back
	req.NoError(store.RemoveParticipant(ctx, alice))

	// Then no trace of her remains
	found, err := store.FindRoom(ctx, "ABCDE")
	req.NoError(err)
	req.Empty(found.Members)
	_, err = store.FindParticipant(ctx, "Alice", "ABCDE")
	req.ErrorIs(err, domain.ErrParticipantNotFound)
	_, err = store.GetParticipant(ctx, alice.ID)
	req.ErrorIs(err, domain.ErrParticipantNotFound)
	list, err := store.ListParticipants(ctx, "ABCDE")
	req.NoError(err)
	req.Empty(list)
}

func Test_RoomStore_ReturnsCopies(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	store := repository.NewRoomStore()
	room, err := store.CreateRoom(ctx, "ABCDE", "host")
	req.NoError(err)

	room.Members = append(room.Members, "intruder")

	found, err := store.FindRoom(ctx, "ABCDE")
	req.NoError(err)
	req.Empty(found.Members)
}
