package room

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiger020517/youtube-watch/internal/client/transport/inmemory"
	"github.com/tiger020517/youtube-watch/internal/domain"
)

func TestStoreApplyLastWriterWins(t *testing.T) {
	store := NewStore(newFakeChannel(), domain.NewPlayerState("abc12345678", 1000))

	currentTime := 30.0
	accepted := store.Apply(domain.PlayerPatch{
		CurrentTime: &currentTime,
		LastUpdate:  2000,
	})
	assert.True(t, accepted)
	assert.Equal(t, 30.0, store.State().CurrentTime)
	assert.Equal(t, "abc12345678", store.State().VideoId, "unset fields must survive the merge")

	// older stamp loses
	stale := 10.0
	accepted = store.Apply(domain.PlayerPatch{
		CurrentTime: &stale,
		LastUpdate:  1500,
	})
	assert.False(t, accepted)
	assert.Equal(t, 30.0, store.State().CurrentTime)

	// a tie is stale too
	accepted = store.Apply(domain.PlayerPatch{
		CurrentTime: &stale,
		LastUpdate:  2000,
	})
	assert.False(t, accepted)
	assert.Equal(t, 30.0, store.State().CurrentTime)
}

// Partial patches alone are not order-independent: the transport resolves
// that by delivering the full merged row per write, so replicas applying the
// deliveries in any order converge.
func TestStoreApplyConvergesAcrossOrders(t *testing.T) {
	broker := inmemory.NewBroker()
	ctx := context.Background()

	feed := broker.Channel("room1")
	var delivered []domain.PlayerPatch
	feed.OnPatch(func(patch domain.PlayerPatch) {
		delivered = append(delivered, patch)
	})
	require.NoError(t, feed.JoinPresence(ctx, domain.Participant{Id: "p1", DisplayName: "alice"}))

	publisher := broker.Channel("room1")
	isPlaying := true
	require.NoError(t, publisher.PublishPatch(ctx, domain.PlayerPatch{IsPlaying: &isPlaying, LastUpdate: 2000}))
	tenSec := 10.0
	require.NoError(t, publisher.PublishPatch(ctx, domain.PlayerPatch{CurrentTime: &tenSec, LastUpdate: 3000}))

	require.Equal(t, 2, len(delivered))
	// each delivery carries the whole row, not just the written fields
	require.NotNil(t, delivered[1].IsPlaying)
	assert.True(t, *delivered[1].IsPlaying)

	fwd := NewStore(newFakeChannel(), domain.PlayerState{})
	fwd.Apply(delivered[0])
	fwd.Apply(delivered[1])

	rev := NewStore(newFakeChannel(), domain.PlayerState{})
	rev.Apply(delivered[1])
	rev.Apply(delivered[0])

	assert.Equal(t, fwd.State(), rev.State(), "replicas must converge regardless of delivery order")
	assert.True(t, rev.State().IsPlaying, "reordered replica must keep the play flag")
	assert.Equal(t, 10.0, rev.State().CurrentTime)
}

func TestStoreProposePublishesStamped(t *testing.T) {
	channel := newFakeChannel()
	store := NewStore(channel, domain.NewPlayerState("abc12345678", 1000))
	store.now = func() int64 { return 5000 }

	var notified []domain.PlayerState
	store.OnChange(func(state domain.PlayerState) {
		notified = append(notified, state)
	})

	isPlaying := true
	err := store.Propose(context.Background(), domain.PlayerPatch{IsPlaying: &isPlaying})
	require.NoError(t, err)

	// applied locally before the echo comes back
	assert.True(t, store.State().IsPlaying)
	assert.Equal(t, int64(5000), store.State().LastUpdate)
	require.Equal(t, 1, len(notified))

	published := channel.publishedPatches()
	require.Equal(t, 1, len(published))
	assert.Equal(t, int64(5000), published[0].LastUpdate)

	// the self-echo of the proposal is a tie and gets dropped
	accepted := store.Apply(published[0])
	assert.False(t, accepted, "own echo must not re-apply")
	require.Equal(t, 1, len(notified), "own echo must not notify")
}

func TestStoreProposeLosesToNewerRemote(t *testing.T) {
	channel := newFakeChannel()
	store := NewStore(channel, domain.NewPlayerState("abc12345678", 1000))
	store.now = func() int64 { return 5000 }

	remoteTime := 99.0
	store.Apply(domain.PlayerPatch{CurrentTime: &remoteTime, LastUpdate: 6000})

	localTime := 10.0
	err := store.Propose(context.Background(), domain.PlayerPatch{CurrentTime: &localTime})
	require.NoError(t, err)

	assert.Equal(t, 99.0, store.State().CurrentTime, "newer remote write must win")
	assert.Empty(t, channel.publishedPatches(), "losing proposal must not be published")
}
