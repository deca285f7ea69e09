package models_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardops/backoffice/models"
)

func TestTransactionCancel(t *testing.T) {
	tx := models.Transaction{ReferenceNumber: "TXN1", Status: models.TransactionStatusApproved}
	require.NoError(t, tx.Cancel())
	require.Equal(t, models.TransactionStatusCancelled, tx.Status)

	t.Run("cancelled is terminal", func(t *testing.T) {
		err := tx.Cancel()
		require.ErrorIs(t, err, models.ErrIllegalTransition)
		require.Equal(t, models.TransactionStatusCancelled, tx.Status)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		rej := models.Transaction{ReferenceNumber: "TXN2", Status: models.TransactionStatusRejected}
		require.ErrorIs(t, rej.Cancel(), models.ErrIllegalTransition)
		require.Equal(t, models.TransactionStatusRejected, rej.Status)
	})

	t.Run("no reference number", func(t *testing.T) {
		unconfirmed := models.Transaction{Status: models.TransactionStatusApproved}
		require.ErrorIs(t, unconfirmed.Cancel(), models.ErrIllegalTransition)
	})
}

func TestCreateTransactionRequestValidate(t *testing.T) {
	valid := models.CreateTransactionRequest{
		CardIdentifier:  "a3f1b2c4",
		TotalAmount:     150.75,
		PurchaseAddress: "Calle 93 #11-27, Bogotá",
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*models.CreateTransactionRequest)
		field  string
	}{
		{"empty card", func(r *models.CreateTransactionRequest) { r.CardIdentifier = "" }, "cardIdentifier"},
		{"zero amount", func(r *models.CreateTransactionRequest) { r.TotalAmount = 0 }, "totalAmount"},
		{"negative amount", func(r *models.CreateTransactionRequest) { r.TotalAmount = -10 }, "totalAmount"},
		{"too large", func(r *models.CreateTransactionRequest) { r.TotalAmount = 1_000_000_000 }, "totalAmount"},
		{"three decimals", func(r *models.CreateTransactionRequest) { r.TotalAmount = 10.999 }, "totalAmount"},
		{"short address", func(r *models.CreateTransactionRequest) { r.PurchaseAddress = "Cll" }, "purchaseAddress"},
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

	t.Run("boundary amount is accepted", func(t *testing.T) {
		req := valid
		req.TotalAmount = models.MaxTotalAmount
		require.NoError(t, req.Validate())
	})

	t.Run("two decimals survive float representation", func(t *testing.T) {
		req := valid
		req.TotalAmount = 0.1 + 0.2 // 0.30000000000000004
		require.NoError(t, req.Validate())
	})
}

func TestValidationErrorsMessage(t *testing.T) {
	ve := models.ValidationErrors{}
	require.NoError(t, ve.Err())

	ve.Add("b", "second")
	ve.Add("a", "first")
	err := ve.Err()
	require.Error(t, err)
	require.Equal(t, "validation failed: a: first; b: second", err.Error())
}

func TestNewPage(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	t.Run("first page", func(t *testing.T) {
		p := models.NewPage(items, 0, 10)
		require.Equal(t, 10, p.NumberOfElements)
		require.Equal(t, 25, p.TotalElements)
		require.Equal(t, 3, p.TotalPages)
		require.True(t, p.First)
		require.False(t, p.Last)
		require.False(t, p.Empty)
		require.Equal(t, 0, p.Content[0])
	})

	t.Run("last partial page", func(t *testing.T) {
		p := models.NewPage(items, 2, 10)
		require.Equal(t, 5, p.NumberOfElements)
		require.True(t, p.Last)
		require.Equal(t, 20, p.Content[0])
	})

	t.Run("page past the end", func(t *testing.T) {
		p := models.NewPage(items, 9, 10)
		require.Equal(t, 0, p.NumberOfElements)
		require.True(t, p.Empty)
	})

	t.Run("empty input", func(t *testing.T) {
		p := models.NewPage([]int{}, 0, 10)
		require.True(t, p.Empty)
		require.True(t, p.First)
		require.True(t, p.Last)
		require.Equal(t, 0, p.TotalPages)
	})
}
