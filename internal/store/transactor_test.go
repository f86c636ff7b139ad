// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevault/gamevault/pkg/errutil"
)

func TestTransactor_InTransaction(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		fn        func(ctx context.Context, pool Pool) error
		wantErr   error
		wantCode  string
	}{
		{
			name: "commits on success",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE users`).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectCommit()
			},
			fn: func(ctx context.Context, pool Pool) error {
				_, err := Conn(ctx, pool).Exec(ctx, `UPDATE users SET name = 'x'`)
				return err
			},
		},
		{
			name: "rolls back when fn fails",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn:      func(context.Context, Pool) error { return errBoom },
			wantErr: errBoom,
		},
		{
			name: "begin failure",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
			},
			fn:       func(context.Context, Pool) error { return nil },
			wantCode: "TX_BEGIN_FAILED",
		},
		{
			name: "commit failure",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
				mock.ExpectRollback()
			},
			fn:       func(context.Context, Pool) error { return nil },
			wantCode: "TX_COMMIT_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setupMock(mock)

			tx := NewTransactor(mock)
			err = tx.InTransaction(context.Background(), func(ctx context.Context) error {
				return tt.fn(ctx, mock)
			})

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantCode != "":
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantCode)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestTransactor_NestedCallReusesTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	tx := NewTransactor(mock)
	err = tx.InTransaction(context.Background(), func(ctx context.Context) error {
		return tx.InTransaction(ctx, func(context.Context) error { return nil })
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_WithoutTransactionUsesPool(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	assert.Equal(t, Querier(mock), Conn(context.Background(), mock))
}
