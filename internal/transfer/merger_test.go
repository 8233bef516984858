package transfer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbank-xlsx/internal/models"
)

func transferLeg(card, amount string, at time.Time) models.Operation {
	return models.Operation{
		OperationDate:   at,
		CardNumber:      card,
		Status:          "OK",
		OperationAmount: decimal.RequireFromString(amount),
		Description:     "Перевод между своими счетами",
	}
}

func purchase(description, amount string, at time.Time) models.Operation {
	return models.Operation{
		OperationDate:   at,
		CardNumber:      "*8878",
		Status:          "OK",
		OperationAmount: decimal.RequireFromString(amount),
		Description:     description,
	}
}

func TestIsOwnTransfer(t *testing.T) {
	assert.True(t, IsOwnTransfer("Перевод между своими счетами"))
	assert.True(t, IsOwnTransfer("ПЕРЕВОД МЕЖДУ СВОИМИ СЧЕТАМИ"))
	assert.False(t, IsOwnTransfer("Перевод другу"))
	assert.False(t, IsOwnTransfer(""))
}

func TestMergePairedTransfers_MergesPair(t *testing.T) {
	at := time.Date(2026, 1, 30, 19, 32, 0, 0, time.UTC)
	ops := []models.Operation{
		transferLeg("*8878", "-30000", at),
		transferLeg("*1234", "30000", at.Add(2*time.Second)),
	}

	merged := MergePairedTransfers(ops, nil)
	require.Len(t, merged, 1)

	got := merged[0]
	assert.Equal(t, "30000", got.OperationAmount.String())
	assert.Equal(t, "*1234", got.DebitAccount)
	assert.Equal(t, "*8878", got.CreditAccount)
	assert.Equal(t, at, got.OperationDate)
}

func TestMergePairedTransfers_PositiveLegFirst(t *testing.T) {
	at := time.Date(2026, 1, 30, 19, 32, 0, 0, time.UTC)
	ops := []models.Operation{
		transferLeg("*1234", "30000", at),
		transferLeg("*8878", "-30000", at.Add(time.Second)),
	}

	merged := MergePairedTransfers(ops, nil)
	require.Len(t, merged, 1)
	assert.Equal(t, "*1234", merged[0].DebitAccount)
	assert.Equal(t, "*8878", merged[0].CreditAccount)
}

func TestMergePairedTransfers_NoPartnerPassesThrough(t *testing.T) {
	at := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	ops := []models.Operation{
		transferLeg("*8878", "-5000", at),
		purchase("Пятёрочка", "-300", at.Add(time.Minute)),
	}

	merged := MergePairedTransfers(ops, nil)
	require.Len(t, merged, 2)
	assert.Empty(t, merged[0].DebitAccount)
	assert.Empty(t, merged[0].CreditAccount)
	assert.Equal(t, "-5000", merged[0].OperationAmount.String())
}

func TestMergePairedTransfers_TimeDeltaLimit(t *testing.T) {
	at := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)

	within := []models.Operation{
		transferLeg("*8878", "-5000", at),
		transferLeg("*1234", "5000", at.Add(5*time.Second)),
	}
	assert.Len(t, MergePairedTransfers(within, nil), 1)

	beyond := []models.Operation{
		transferLeg("*8878", "-5000", at),
		transferLeg("*1234", "5000", at.Add(6*time.Second)),
	}
	assert.Len(t, MergePairedTransfers(beyond, nil), 2)
}

func TestMergePairedTransfers_SearchWindowLimit(t *testing.T) {
	at := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)

	ops := []models.Operation{transferLeg("*8878", "-5000", at)}
	for i := 0; i < 9; i++ {
		ops = append(ops, purchase("Пятёрочка", "-100", at))
	}
	ops = append(ops, transferLeg("*1234", "5000", at))

	// The partner sits just past the nine-record window.
	assert.Len(t, MergePairedTransfers(ops, nil), 11)

	ops[9] = transferLeg("*1234", "5000", at)
	merged := MergePairedTransfers(ops, nil)
	assert.Len(t, merged, 10)
}

func TestMergePairedTransfers_AmountsMustBeExactOpposites(t *testing.T) {
	at := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	ops := []models.Operation{
		transferLeg("*8878", "-5000", at),
		transferLeg("*1234", "5000.01", at),
	}
	assert.Len(t, MergePairedTransfers(ops, nil), 2)
}

func TestMergePairedTransfers_FirstHitWins(t *testing.T) {
	at := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	ops := []models.Operation{
		transferLeg("*8878", "-5000", at),
		transferLeg("*1234", "5000", at),
		transferLeg("*5678", "5000", at),
	}

	merged := MergePairedTransfers(ops, nil)
	require.Len(t, merged, 2)
	assert.Equal(t, "*1234", merged[0].DebitAccount)
	assert.Equal(t, "*5678", merged[1].CardNumber)
	assert.Empty(t, merged[1].DebitAccount)
}

func TestMergePairedTransfers_ZeroAmountIgnored(t *testing.T) {
	at := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	ops := []models.Operation{
		transferLeg("*8878", "0", at),
		transferLeg("*1234", "0", at),
	}
	merged := MergePairedTransfers(ops, nil)
	assert.Len(t, merged, 2)
}

func TestMergePairedTransfers_PreservesOrderAndInput(t *testing.T) {
	at := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	ops := []models.Operation{
		purchase("Пятёрочка", "-300", at),
		transferLeg("*8878", "-5000", at.Add(time.Minute)),
		purchase("Кафе", "-700", at.Add(2*time.Minute)),
		transferLeg("*1234", "5000", at.Add(time.Minute+2*time.Second)),
		purchase("Аптека", "-150", at.Add(3*time.Minute)),
	}

	merged := MergePairedTransfers(ops, nil)
	require.Len(t, merged, 4)
	assert.Equal(t, "Пятёрочка", merged[0].Description)
	assert.Equal(t, "*1234", merged[1].DebitAccount)
	assert.Equal(t, "Кафе", merged[2].Description)
	assert.Equal(t, "Аптека", merged[3].Description)

	// Input legs keep their original, unmerged state.
	assert.Empty(t, ops[1].DebitAccount)
	assert.Equal(t, "-5000", ops[1].OperationAmount.String())
}

func TestMergePairedTransfers_NoTransfersIsIdentity(t *testing.T) {
	at := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	ops := []models.Operation{
		purchase("Пятёрочка", "-300", at),
		purchase("Зарплата", "150000", at),
	}

	merged := MergePairedTransfers(ops, nil)
	assert.Equal(t, ops, merged)
}
