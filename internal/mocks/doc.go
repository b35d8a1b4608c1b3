// Package mocks provides shared test doubles for the store, service and
// event interfaces.
//
// Store and service mocks are built on testify/mock; set expectations with
// On(...).Return(...) and check them with AssertExpectations. Store mocks
// return themselves from WithTx so expectations hold inside transactions.
// TxRunner runs the callback with a nil *sql.Tx, which works because the
// store mocks ignore the transaction.
package mocks
