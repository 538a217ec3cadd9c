// internal/domain/transaction_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataRoundTrip(t *testing.T) {
	meta := Metadata{
		Kind: MetadataKindManualAdminCharge,
		ManualAdminCharge: &ManualAdminCharge{
			AdminID:       42,
			AdminUsername: "treasury",
			ChargeType:    ChargeTypeManualAdmin,
			ReceiptNumber: "RCPT-1001",
		},
	}

	value, err := meta.Value()
	require.NoError(t, err)

	var scanned Metadata
	require.NoError(t, scanned.Scan(value))

	assert.Equal(t, meta.Kind, scanned.Kind)
	require.NotNil(t, scanned.ManualAdminCharge)
	assert.Equal(t, "treasury", scanned.ManualAdminCharge.AdminUsername)
	assert.Nil(t, scanned.OrderSettlement)
}

func TestMetadataEmptyIsNull(t *testing.T) {
	value, err := Metadata{}.Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	var scanned Metadata
	require.NoError(t, scanned.Scan(nil))
	assert.Equal(t, Metadata{}, scanned)
}

func TestNewPendingDeposit(t *testing.T) {
	meta := Metadata{
		Kind:           MetadataKindGatewayDeposit,
		GatewayDeposit: &GatewayDeposit{Gateway: "zarinpal", ReceiptNumber: "Z-77"},
	}

	entry := NewPendingDeposit(7, 3, decimal.NewFromInt(1000000), meta, "Z-77")

	assert.Equal(t, TransactionStatusPending, entry.Status)
	assert.Equal(t, TransactionTypeDeposit, entry.Type)
	require.NotNil(t, entry.ReferenceID)
	assert.Equal(t, "Z-77", *entry.ReferenceID)
}
