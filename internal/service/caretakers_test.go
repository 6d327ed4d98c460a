package service

import (
	"context"
	"testing"

	"github.com/raphaelgruber/carewatch/internal/db"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaretakers(t *testing.T) {
	s := NewCaretakerService(db.NewMemory())
	ctx := context.Background()

	c, err := s.Add(ctx, "asha@example.com", models.CaretakerInput{Name: " Ravi ", Contact: "555-0100", Relation: "Son"})
	require.NoError(t, err)
	assert.Equal(t, "Ravi", c.Name)

	for _, in := range []models.CaretakerInput{
		{Contact: "555", Relation: "Son"},
		{Name: "Ravi", Relation: "Son"},
		{Name: "Ravi", Contact: "555"},
	} {
		_, err := s.Add(ctx, "asha@example.com", in)
		assert.ErrorIs(t, err, ErrMissingField)
	}

	list, err := s.List(ctx, "asha@example.com")
	require.NoError(t, err)
	require.Len(t, list, 1)

	id := models.MustRecordIDString(c.ID)
	assert.ErrorIs(t, s.Delete(ctx, "other@example.com", id), db.ErrNotFound)
	require.NoError(t, s.Delete(ctx, "asha@example.com", id))
	assert.ErrorIs(t, s.Delete(ctx, "asha@example.com", id), db.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "asha@example.com", ""), ErrMissingField)
}
