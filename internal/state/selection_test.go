package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ToggleTwiceRestoresPending(t *testing.T) {
	store := NewStore()
	chatID := int64(10)

	require.NoError(t, store.Update(chatID, func(st *ChatState) error {
		st.Confirmed = NewCoinSet("bitcoin")
		return nil
	}))
	store.BeginSelection(chatID)

	before := store.CurrentView(chatID).IDs()
	assert.True(t, store.ToggleCoin(chatID, "ethereum"))
	assert.False(t, store.ToggleCoin(chatID, "ethereum"))

	assert.Equal(t, before, store.CurrentView(chatID).IDs())
}

func TestStore_ToggleWithoutDialogStartsEmpty(t *testing.T) {
	store := NewStore()
	chatID := int64(11)

	require.NoError(t, store.Update(chatID, func(st *ChatState) error {
		st.Confirmed = NewCoinSet("bitcoin")
		return nil
	}))

	store.ToggleCoin(chatID, "solana")

	st := store.GetState(chatID)
	require.NotNil(t, st.Pending)
	assert.Equal(t, []string{"solana"}, st.Pending.IDs())
	assert.Equal(t, []string{"bitcoin"}, st.Confirmed.IDs())
}

func TestStore_ConfirmSelection(t *testing.T) {
	testCases := []struct {
		name          string
		confirmed     []string
		toggles       []string
		wantConfirmed []string
		wantErr       error
	}{
		{
			name:          "zero toggles keeps confirmed",
			confirmed:     []string{"bitcoin", "ethereum"},
			wantConfirmed: []string{"bitcoin", "ethereum"},
		},
		{
			name:          "toggles replace confirmed",
			confirmed:     []string{"bitcoin"},
			toggles:       []string{"bitcoin", "ethereum", "solana"},
			wantConfirmed: []string{"ethereum", "solana"},
		},
		{
			name:          "empty selection is rejected",
			confirmed:     []string{"bitcoin"},
			toggles:       []string{"bitcoin"},
			wantConfirmed: []string{"bitcoin"},
			wantErr:       ErrEmptySelection,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore()
			chatID := int64(12)

			require.NoError(t, store.Update(chatID, func(st *ChatState) error {
				st.Confirmed = NewCoinSet(tc.confirmed...)
				return nil
			}))
			store.BeginSelection(chatID)
			for _, id := range tc.toggles {
				store.ToggleCoin(chatID, id)
			}

			_, err := store.ConfirmSelection(chatID)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.NotNil(t, store.GetState(chatID).Pending)
			} else {
				require.NoError(t, err)
				assert.Nil(t, store.GetState(chatID).Pending)
			}
			assert.Equal(t, tc.wantConfirmed, store.Confirmed(chatID))
		})
	}
}

func TestStore_ConfirmWithoutDialog(t *testing.T) {
	store := NewStore()

	_, err := store.ConfirmSelection(13)
	assert.ErrorIs(t, err, ErrNothingToConfirm)
}

func TestStore_CurrentViewFallsBackToConfirmed(t *testing.T) {
	store := NewStore()
	chatID := int64(14)

	require.NoError(t, store.Update(chatID, func(st *ChatState) error {
		st.Confirmed = NewCoinSet("bitcoin")
		return nil
	}))
	assert.True(t, store.CurrentView(chatID).Has("bitcoin"))

	store.BeginSelection(chatID)
	store.ToggleCoin(chatID, "bitcoin")
	assert.False(t, store.CurrentView(chatID).Has("bitcoin"))
	assert.True(t, store.GetState(chatID).Confirmed.Has("bitcoin"))
}

func TestStore_CancelDiscardsPending(t *testing.T) {
	store := NewStore()
	chatID := int64(15)

	store.ToggleCoin(chatID, "bitcoin")
	store.SetInput(chatID, StateSearching)
	store.Cancel(chatID)

	st := store.GetState(chatID)
	assert.Nil(t, st.Pending)
	assert.Equal(t, StateIdle, st.Input)
	assert.Empty(t, st.Confirmed.IDs())
}

func TestStore_ChatsAreIndependent(t *testing.T) {
	store := NewStore()

	store.ToggleCoin(1, "bitcoin")
	_, err := store.ConfirmSelection(1)
	require.NoError(t, err)

	assert.Empty(t, store.Confirmed(2))
	assert.Len(t, store.GetAllStates(), 2)
}
