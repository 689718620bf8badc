package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/form/models"
)

func readyController(t *testing.T, establishments ...string) *Controller {
	t.Helper()
	c := NewController()
	c.Load(func(s models.FormState) models.FormState {
		s.Establishments = establishments
		return s
	})
	c.MarkReady()
	return c
}

func TestInitialStateIsLoading(t *testing.T) {
	s := NewController().Snapshot()

	assert.True(t, s.IsLoading)
	assert.Empty(t, s.Establishments)
	assert.Nil(t, s.SelectedEstablishment)
	assert.Empty(t, s.Order)
}

func TestEditsRejectedWhileLoading(t *testing.T) {
	c := NewController()

	_, err := c.UpdateField(FieldOrder, "coffee")
	assert.ErrorIs(t, err, ErrLoading)

	_, err = c.UpdateSelection(FieldEstablishment, "Cafe A")
	assert.ErrorIs(t, err, ErrLoading)

	assert.Empty(t, c.Snapshot().Order)
}

func TestUpdateField(t *testing.T) {
	c := readyController(t)

	s, err := c.UpdateField(FieldOrder, "2x coffee")
	require.NoError(t, err)
	assert.Equal(t, "2x coffee", s.Order)

	s, err = c.UpdateField(FieldComment, "no sugar")
	require.NoError(t, err)
	assert.Equal(t, "no sugar", s.Comment)
	assert.Equal(t, "2x coffee", s.Order)

	_, err = c.UpdateField("price", "1")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestUpdateFieldIsIdempotent(t *testing.T) {
	once := readyController(t, "Cafe A")
	twice := readyController(t, "Cafe A")

	_, err := once.UpdateField(FieldOrder, "tea")
	require.NoError(t, err)
	_, err = twice.UpdateField(FieldOrder, "tea")
	require.NoError(t, err)
	_, err = twice.UpdateField(FieldOrder, "tea")
	require.NoError(t, err)

	assert.True(t, once.Snapshot().Equal(twice.Snapshot()))
}

func TestUpdateSelectionAcceptsAnyValue(t *testing.T) {
	c := readyController(t, "Cafe A", "Cafe B")

	s, err := c.UpdateSelection(FieldEstablishment, "Cafe B")
	require.NoError(t, err)
	assert.Equal(t, "Cafe B", s.Establishment())

	s, err = c.UpdateSelection(FieldEstablishment, "Elsewhere")
	require.NoError(t, err)
	assert.Equal(t, "Elsewhere", s.Establishment())

	_, err = c.UpdateSelection(FieldOrder, "Cafe A")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	c := readyController(t, "Cafe A", "Cafe B")
	before := c.Snapshot()

	before.Establishments[0] = "mutated"
	_, err := c.UpdateSelection(FieldEstablishment, "Cafe A")
	require.NoError(t, err)

	assert.Equal(t, []string{"Cafe A", "Cafe B"}, c.Snapshot().Establishments)
	assert.Nil(t, before.SelectedEstablishment)
}

func TestReadyIsTerminal(t *testing.T) {
	c := readyController(t, "Cafe A")

	s := c.Load(func(s models.FormState) models.FormState {
		s.Establishments = []string{"Other"}
		return s
	})
	assert.Equal(t, []string{"Cafe A"}, s.Establishments)
	assert.False(t, c.MarkReady().IsLoading)
}

func TestReset(t *testing.T) {
	c := readyController(t, "Cafe A")
	_, _ = c.UpdateSelection(FieldEstablishment, "Cafe A")
	_, _ = c.UpdateField(FieldOrder, "tea")
	_, _ = c.UpdateField(FieldComment, "hot")

	s := c.Reset()

	assert.Nil(t, s.SelectedEstablishment)
	assert.Empty(t, s.Order)
	assert.Empty(t, s.Comment)
	assert.Equal(t, []string{"Cafe A"}, s.Establishments)
	assert.False(t, s.IsLoading)
}

func TestSubscribeReceivesLatest(t *testing.T) {
	c := NewController()
	ch, cancel := c.Subscribe()
	defer cancel()

	first := <-ch
	assert.True(t, first.IsLoading)

	c.MarkReady()
	_, _ = c.UpdateField(FieldOrder, "a")
	_, _ = c.UpdateField(FieldOrder, "ab")

	select {
	case s := <-ch:
		assert.Equal(t, "ab", s.Order)
		assert.False(t, s.IsLoading)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestCancelClosesSubscription(t *testing.T) {
	c := NewController()
	ch, cancel := c.Subscribe()
	<-ch

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	c.MarkReady()
}

func TestCloseDropsSubscribers(t *testing.T) {
	c := NewController()
	ch, cancel := c.Subscribe()
	<-ch

	c.Close()
	_, open := <-ch
	assert.False(t, open)

	cancel()
}
