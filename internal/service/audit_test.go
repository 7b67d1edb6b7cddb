package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/testutil"
)

func TestAudit_ListPagesWithoutGaps(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	accounts := &Accounts{DB: db}
	audit := &Audit{DB: db}
	ctx := context.Background()

	staff := testutil.CreateUser(t, db, "staff", testutil.Staff)
	for i := 0; i < 5; i++ {
		u := testutil.CreateUser(t, db, fmt.Sprintf("user%d", i))
		_, err := accounts.Activate(ctx, staff, u.ID, meta)
		require.NoError(t, err)
	}

	var seen []int64
	q := AuditQuery{Limit: 2}
	for page := 0; page < 5; page++ {
		logs, next, err := audit.List(ctx, staff, q)
		require.NoError(t, err)
		for _, l := range logs {
			seen = append(seen, l.ID)
		}
		if next == nil {
			break
		}
		q.AfterID = *next
	}

	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		assert.Equal(t, seen[i-1]-1, seen[i], "entries are returned newest first without gaps")
	}
}

func TestAudit_Search(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	accounts := &Accounts{DB: db}
	audit := &Audit{DB: db}
	ctx := context.Background()

	staff := testutil.CreateUser(t, db, "staff", testutil.Staff)
	u := testutil.CreateUser(t, db, "member")
	_, err := accounts.Activate(ctx, staff, u.ID, meta)
	require.NoError(t, err)
	_, err = accounts.Deactivate(ctx, staff, u.ID, meta)
	require.NoError(t, err)

	logs, next, err := audit.List(ctx, staff, AuditQuery{Search: "DEACTIVATE"})
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, logs, 1)
	assert.Equal(t, "staff", logs[0].InitiatorName)

	_, _, err = audit.List(ctx, u, AuditQuery{})
	assert.ErrorIs(t, err, apperr.ErrAccountInactive)
}
