package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/models"
	"orgdirectory/internal/testutil"
)

func orgInput(name string, categoryIDs ...int64) OrganizationInput {
	return OrganizationInput{
		Name:        name,
		Type:        "Company",
		Website:     "https://" + strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".example.com",
		Phone:       "+57 300 000 0000",
		TaxID:       "900123456-7",
		Services:    "consulting, support",
		CategoryIDs: categoryIDs,
	}
}

func TestOrganizations_Create(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	svc := &Organizations{DB: db}
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner", testutil.Active)
	retail := testutil.CreateCategory(t, db, "Retail", true)
	bank := testutil.CreateCategory(t, db, "Banking", true)

	org, err := svc.Create(ctx, owner.Profile, orgInput("Acme", retail.ID, bank.ID))
	require.NoError(t, err)
	assert.Equal(t, owner.Profile.ID, org.OwnerID)
	assert.Equal(t, []string{"consulting", "support"}, org.ServicesList())

	got, err := svc.Get(ctx, owner.Profile, org.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{retail.ID, bank.ID}, got.CategoryIDs())
	assert.Equal(t, "900123456-7", got.TaxID)
}

func TestOrganizations_CreateValidation(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	svc := &Organizations{DB: db}
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner", testutil.Active)
	hidden := testutil.CreateCategory(t, db, "Hidden", false)

	tests := []struct {
		name   string
		mutate func(*OrganizationInput)
		field  string
	}{
		{"missing name", func(in *OrganizationInput) { in.Name = "" }, "name"},
		{"long name", func(in *OrganizationInput) { in.Name = strings.Repeat("x", 51) }, "name"},
		{"bad website", func(in *OrganizationInput) { in.Website = "not a url" }, "website"},
		{"long nit", func(in *OrganizationInput) { in.TaxID = strings.Repeat("9", 21) }, "nit"},
		{"long services", func(in *OrganizationInput) { in.Services = strings.Repeat("s", 201) }, "services"},
		{"inactive category", func(in *OrganizationInput) { in.CategoryIDs = []int64{hidden.ID} }, "categories"},
		{"unknown category", func(in *OrganizationInput) { in.CategoryIDs = []int64{4242} }, "categories"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := orgInput("Acme")
			tt.mutate(&in)

			_, err := svc.Create(ctx, owner.Profile, in)

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	var n int64
	require.NoError(t, db.Model(&models.Organization{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestOrganizations_OwnerScoping(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	svc := &Organizations{DB: db}
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner", testutil.Active)
	other := testutil.CreateUser(t, db, "other", testutil.Active)

	org, err := svc.Create(ctx, owner.Profile, orgInput("Acme"))
	require.NoError(t, err)

	_, err = svc.Get(ctx, other.Profile, org.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Update(ctx, other.Profile, org.ID, orgInput("Stolen"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.Delete(ctx, other.Profile, org.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := svc.Get(ctx, owner.Profile, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	owned, err := svc.ListOwned(ctx, other.Profile)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestOrganizations_Update(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	svc := &Organizations{DB: db}
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner", testutil.Active)
	retail := testutil.CreateCategory(t, db, "Retail", true)
	food := testutil.CreateCategory(t, db, "Food", true)

	in := orgInput("Acme", retail.ID)
	in.Logo = "logos/acme.png"
	org, err := svc.Create(ctx, owner.Profile, in)
	require.NoError(t, err)

	update := orgInput("Acme Group", food.ID)
	update.Services = ""
	got, err := svc.Update(ctx, owner.Profile, org.ID, update)
	require.NoError(t, err)

	assert.Equal(t, "Acme Group", got.Name)
	assert.Equal(t, "logos/acme.png", got.Logo, "logo is kept when none is submitted")
	assert.Equal(t, []string{}, got.ServicesList())
	assert.Equal(t, []int64{food.ID}, got.CategoryIDs())
}

func TestOrganizations_UpdateWithDeactivatedCategory(t *testing.T) {
	setup := func(t *testing.T) (*Organizations, *models.Profile, *models.Organization, *models.Category, *models.Category) {
		db := testutil.SetupSQLiteTestDB(t)
		svc := &Organizations{DB: db}
		owner := testutil.CreateUser(t, db, "owner", testutil.Active)
		retail := testutil.CreateCategory(t, db, "Retail", true)
		bank := testutil.CreateCategory(t, db, "Banking", true)
		org, err := svc.Create(context.Background(), owner.Profile, orgInput("Acme", retail.ID, bank.ID))
		require.NoError(t, err)
		require.NoError(t, db.Model(retail).Update("status", false).Error)
		return svc, owner.Profile, org, retail, bank
	}
	ctx := context.Background()

	t.Run("resubmitting the current set keeps the inactive link", func(t *testing.T) {
		svc, owner, org, retail, bank := setup(t)
		current, err := svc.Get(ctx, owner, org.ID)
		require.NoError(t, err)

		got, err := svc.Update(ctx, owner, org.ID, orgInput("Acme", current.CategoryIDs()...))
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{retail.ID, bank.ID}, got.CategoryIDs())
	})

	t.Run("leaving it out removes the link", func(t *testing.T) {
		svc, owner, org, _, bank := setup(t)

		got, err := svc.Update(ctx, owner, org.ID, orgInput("Acme", bank.ID))
		require.NoError(t, err)
		assert.Equal(t, []int64{bank.ID}, got.CategoryIDs())
	})

	t.Run("an unlinked inactive category cannot be added", func(t *testing.T) {
		svc, owner, _, retail, bank := setup(t)
		other, err := svc.Create(ctx, owner, orgInput("Other", bank.ID))
		require.NoError(t, err)

		_, err = svc.Update(ctx, owner, other.ID, orgInput("Other", bank.ID, retail.ID))
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "categories")
	})
}

func TestOrganizations_DeleteRemovesLinks(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	svc := &Organizations{DB: db}
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner", testutil.Active)
	retail := testutil.CreateCategory(t, db, "Retail", true)

	org, err := svc.Create(ctx, owner.Profile, orgInput("Acme", retail.ID))
	require.NoError(t, err)
	keep, err := svc.Create(ctx, owner.Profile, orgInput("Keep", retail.ID))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner.Profile, org.ID))

	var links int64
	require.NoError(t, db.Table("organization_categories").Where("organization_id = ?", org.ID).Count(&links).Error)
	assert.Zero(t, links)
	require.NoError(t, db.Table("organization_categories").Where("organization_id = ?", keep.ID).Count(&links).Error)
	assert.Equal(t, int64(1), links)

	_, err = svc.Get(ctx, owner.Profile, org.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var cat models.Category
	require.NoError(t, db.First(&cat, retail.ID).Error, "categories survive organization deletion")
}

func TestOrganizations_FirstOwnedAndRecent(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	svc := &Organizations{DB: db}
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner", testutil.Active)
	other := testutil.CreateUser(t, db, "other", testutil.Active)

	first, err := svc.FirstOwned(ctx, owner.Profile)
	require.NoError(t, err)
	assert.Nil(t, first)

	a, err := svc.Create(ctx, owner.Profile, orgInput("Alpha"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner.Profile, orgInput("Beta"))
	require.NoError(t, err)
	c, err := svc.Create(ctx, other.Profile, orgInput("Gamma"))
	require.NoError(t, err)

	first, err = svc.FirstOwned(ctx, owner.Profile)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, a.ID, first.ID)

	recent, err := svc.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, c.ID, recent[0].ID)

	none, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
