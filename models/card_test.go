package models_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardops/backoffice/models"
)

func TestCardLifecycle(t *testing.T) {
	card := models.Card{Status: models.CardStatusCreated}

	require.False(t, card.Eligible())
	require.NoError(t, card.Enroll())
	require.Equal(t, models.CardStatusEnrolled, card.Status)
	require.True(t, card.Eligible())

	require.NoError(t, card.Deactivate())
	require.Equal(t, models.CardStatusInactive, card.Status)
	require.False(t, card.Eligible())
}

func TestCardIllegalTransitions(t *testing.T) {
	t.Run("enroll twice", func(t *testing.T) {
		card := models.Card{Status: models.CardStatusEnrolled}
		err := card.Enroll()
		require.ErrorIs(t, err, models.ErrIllegalTransition)
		require.Equal(t, models.CardStatusEnrolled, card.Status)
	})

	t.Run("deactivate a created card", func(t *testing.T) {
		card := models.Card{Status: models.CardStatusCreated}
		err := card.Deactivate()
		require.ErrorIs(t, err, models.ErrIllegalTransition)
		require.Equal(t, models.CardStatusCreated, card.Status)
	})

	t.Run("inactive is terminal", func(t *testing.T) {
		card := models.Card{Status: models.CardStatusInactive}
		require.ErrorIs(t, card.Enroll(), models.ErrIllegalTransition)
		require.ErrorIs(t, card.Deactivate(), models.ErrIllegalTransition)
	})
}

func TestCreateCardRequestValidate(t *testing.T) {
	valid := models.CreateCardRequest{
		PAN:            "4539578763621486",
		HolderName:     "María Pérez",
		DocumentNumber: "1234567890",
		PhoneNumber:    "3001234567",
		CardType:       models.CardTypeCredit,
	}
	require.NoError(t, valid.Validate())

	t.Run("phone is optional", func(t *testing.T) {
		req := valid
		req.PhoneNumber = ""
		require.NoError(t, req.Validate())
	})

	cases := []struct {
		name   string
		mutate func(*models.CreateCardRequest)
		field  string
	}{
		{"bad check digit", func(r *models.CreateCardRequest) { r.PAN = "4539578763621487" }, "pan"},
		{"short pan", func(r *models.CreateCardRequest) { r.PAN = "45395787" }, "pan"},
		{"empty holder", func(r *models.CreateCardRequest) { r.HolderName = "   " }, "holderName"},
		{"digits in holder", func(r *models.CreateCardRequest) { r.HolderName = "John 2" }, "holderName"},
		{"one-letter holder", func(r *models.CreateCardRequest) { r.HolderName = "J" }, "holderName"},
		{"short document", func(r *models.CreateCardRequest) { r.DocumentNumber = "123456789" }, "documentNumber"},
		{"long document", func(r *models.CreateCardRequest) { r.DocumentNumber = "1234567890123456" }, "documentNumber"},
		{"short phone", func(r *models.CreateCardRequest) { r.PhoneNumber = "300123456" }, "phoneNumber"},
		{"bad card type", func(r *models.CreateCardRequest) { r.CardType = "GIFT" }, "cardType"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			err := req.Validate()
			require.Error(t, err)

			var ve models.ValidationErrors
			require.True(t, errors.As(err, &ve))
			require.Contains(t, ve, tc.field)
		})
	}
}

func TestEnrollCardRequestValidate(t *testing.T) {
	require.NoError(t, models.EnrollCardRequest{Identifier: "abc", ValidationNumber: "123"}.Validate())
	require.Error(t, models.EnrollCardRequest{Identifier: "", ValidationNumber: "123"}.Validate())
	require.Error(t, models.EnrollCardRequest{Identifier: "abc", ValidationNumber: "12"}.Validate())
	require.Error(t, models.EnrollCardRequest{Identifier: "abc", ValidationNumber: "12a"}.Validate())
	require.Error(t, models.EnrollCardRequest{Identifier: "abc", ValidationNumber: "1234"}.Validate())
}
