package models_test

import (
	"anonrelay/backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionEncode(t *testing.T) {
	assert.Equal(t, "reply_AB12CD34", models.ReplyAction("AB12CD34").Encode())
	assert.Equal(t, "ban_111", models.BanAction(111).Encode())
	assert.Equal(t, "done_AB12CD34", models.DoneAction("AB12CD34").Encode())
}

func TestParseAction(t *testing.T) {
	for _, a := range []models.Action{
		models.ReplyAction("Q9W8E7R6"),
		models.BanAction(984209612),
		models.DoneAction("Q9W8E7R6"),
	} {
		parsed, err := models.ParseAction(a.Encode())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
}

func TestParseAction_Invalid(t *testing.T) {
	for _, data := range []string{"", "reply", "reply_", "ban_abc", "delete_X", "set_lang_en"} {
		_, err := models.ParseAction(data)
		assert.ErrorIs(t, err, models.ErrInvalidAction, data)
	}
}
