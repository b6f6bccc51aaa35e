package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestAccountService(db *gorm.DB) *AccountService {
	s := NewAccountService(db)
	s.bcryptCost = bcrypt.MinCost
	return s
}

func TestAccountService_RegisterClient(t *testing.T) {
	db, _ := setupServiceTest(t)
	ctx := context.Background()
	service := newTestAccountService(db)

	user, err := service.Register(ctx, RegisterInput{
		Email:       "  Nimal@Example.com ",
		Password:    "s3cretpass",
		Role:        models.RoleClient,
		FullName:    " Nimal Perera ",
		PhoneNumber: "0771234567",
		NICNumber:   "901234567V",
	})
	require.NoError(t, err)
	assert.Equal(t, "nimal@example.com", user.Email)
	assert.Equal(t, models.RoleClient, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "s3cretpass", user.PasswordHash)

	profile, err := service.LoadProfile(ctx, *user)
	require.NoError(t, err)
	require.Equal(t, models.ProfileClient, profile.Kind)
	assert.Equal(t, "Nimal Perera", profile.Client.FullName)
	assert.Equal(t, 0, testutil.Balance(t, db, user.ID), "clients start with an empty balance")
}

func TestAccountService_RegisterLawyerWithQualifications(t *testing.T) {
	db, _ := setupServiceTest(t)
	bucket := useMockStorage(t)
	index := NewMockLawyerIndex()
	original := GetLawyerIndex()
	index.SetAsMockForTesting()
	defer SetLawyerIndex(original)

	ctx := context.Background()
	service := newTestAccountService(db)

	user, err := service.Register(ctx, RegisterInput{
		Email:          "kamala@example.com",
		Password:       "s3cretpass",
		Role:           models.RoleLawyer,
		FullName:       "Kamala Silva",
		Expertise:      "Family",
		Location:       "Kandy",
		Qualifications: testFileHeader(t, "degree.pdf", []byte("%PDF")),
	})
	require.NoError(t, err)

	lawyer, err := service.GetLawyerProfile(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, models.ExpertiseFamily, lawyer.Expertise)
	assert.False(t, lawyer.Approved, "lawyers start unapproved")
	assert.Equal(t, "kamala@example.com", lawyer.Email)
	require.NotNil(t, lawyer.QualificationsURL)
	assert.Contains(t, *lawyer.QualificationsURL, "qualifications/")

	keys := bucket.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "qualifications/"))
	assert.True(t, strings.HasSuffix(keys[0], "_degree.pdf"))

	doc, ok := index.Document(lawyer.ID)
	require.True(t, ok, "new lawyers are indexed")
	assert.False(t, doc.Approved)
}

func TestAccountService_RegisterValidation(t *testing.T) {
	db, _ := setupServiceTest(t)
	ctx := context.Background()
	service := newTestAccountService(db)
	testutil.CreateUser(t, db, "taken@example.com", models.RoleClient)

	valid := RegisterInput{Email: "new@example.com", Password: "s3cretpass", Role: models.RoleClient}

	tests := []struct {
		name     string
		mutate   func(in *RegisterInput)
		wantCode string
	}{
		{"invalid email", func(in *RegisterInput) { in.Email = "not-an-email" }, "INVALID_EMAIL"},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, "WEAK_PASSWORD"},
		{"admin role", func(in *RegisterInput) { in.Role = models.RoleAdmin }, "INVALID_ROLE"},
		{"lawyer without expertise", func(in *RegisterInput) { in.Role = models.RoleLawyer }, "INVALID_EXPERTISE"},
		{"duplicate email", func(in *RegisterInput) { in.Email = "TAKEN@example.com" }, "USER_EXISTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := service.Register(ctx, in)
			se, ok := AsServiceError(err)
			require.True(t, ok, "expected a ServiceError, got %v", err)
			assert.Equal(t, tt.wantCode, se.Code)
		})
	}
}

func TestAccountService_RegisterRejectsBadUpload(t *testing.T) {
	db, _ := setupServiceTest(t)
	useMockStorage(t)
	service := newTestAccountService(db)

	_, err := service.Register(context.Background(), RegisterInput{
		Email:          "kamala@example.com",
		Password:       "s3cretpass",
		Role:           models.RoleLawyer,
		Expertise:      "civil",
		Qualifications: testFileHeader(t, "virus.exe", []byte("MZ")),
	})
	require.Error(t, err)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestAccountService_Authenticate(t *testing.T) {
	db, _ := setupServiceTest(t)
	ctx := context.Background()
	service := newTestAccountService(db)
	user := testutil.CreateUser(t, db, "user@example.com", models.RoleClient)
	inactive := testutil.CreateUser(t, db, "inactive@example.com", models.RoleClient)
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)

	got, err := service.Authenticate(ctx, " USER@example.com", testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = service.Authenticate(ctx, "user@example.com", "wrong-password")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = service.Authenticate(ctx, "nobody@example.com", testutil.Password)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = service.Authenticate(ctx, "inactive@example.com", testutil.Password)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestAccountService_EnsureAdmin(t *testing.T) {
	db, _ := setupServiceTest(t)
	ctx := context.Background()
	service := newTestAccountService(db)

	admin, err := service.EnsureAdmin(ctx, "Admin@Example.com", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	again, err := service.EnsureAdmin(ctx, "admin@example.com", "different")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID, "existing admin is reused")

	_, err = service.Authenticate(ctx, "admin@example.com", "adminpass")
	assert.NoError(t, err)
}

func TestLoadProfiles(t *testing.T) {
	db, _ := setupServiceTest(t)
	ctx := context.Background()
	client := testutil.CreateClient(t, db, "client@example.com", "Nimal Perera", 0)
	lawyer, _ := testutil.CreateLawyer(t, db, "lawyer@example.com", "Kamala Silva", models.ExpertiseCivil, true)
	admin := testutil.CreateAdmin(t, db, "admin@example.com")
	bare := testutil.CreateUser(t, db, "bare@example.com", models.RoleClient)

	profiles, err := LoadProfiles(ctx, db, []models.User{client, lawyer, admin, bare})
	require.NoError(t, err)
	assert.Equal(t, models.ProfileClient, profiles[client.ID].Kind)
	assert.Equal(t, models.ProfileLawyer, profiles[lawyer.ID].Kind)
	assert.Equal(t, models.ProfileNone, profiles[admin.ID].Kind)
	assert.Equal(t, models.ProfileNone, profiles[bare.ID].Kind)

	names, err := DisplayNames(ctx, db, []uint{client.ID, lawyer.ID, admin.ID, bare.ID})
	require.NoError(t, err)
	assert.Equal(t, "Nimal Perera", names[client.ID])
	assert.Equal(t, "Kamala Silva", names[lawyer.ID])
	assert.Equal(t, "admin@example.com", names[admin.ID])
	assert.Equal(t, "bare@example.com", names[bare.ID])
}

func TestAccountService_UpdateProfiles(t *testing.T) {
	db, _ := setupServiceTest(t)
	useMockStorage(t)
	ctx := context.Background()
	service := newTestAccountService(db)
	client := testutil.CreateClient(t, db, "client@example.com", "Old Name", 0)
	lawyer, _ := testutil.CreateLawyer(t, db, "lawyer@example.com", "Kamala Silva", models.ExpertiseCivil, true)

	name := "New Name"
	updated, err := service.UpdateClientProfile(ctx, &client, ClientProfileUpdate{
		FullName:       &name,
		ProfilePicture: testFileHeader(t, "me.png", []byte("png")),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)
	require.NotNil(t, updated.ProfilePictureURL)
	assert.Contains(t, *updated.ProfilePictureURL, "profile_pics/")

	expertise := "corporate"
	location := "Galle"
	lawyerProfile, err := service.UpdateLawyerProfile(ctx, &lawyer, LawyerProfileUpdate{Expertise: &expertise, Location: &location})
	require.NoError(t, err)
	assert.Equal(t, models.ExpertiseCorporate, lawyerProfile.Expertise)
	assert.Equal(t, "Galle", lawyerProfile.Location)
	assert.True(t, lawyerProfile.Approved, "updating a profile keeps approval")

	bad := "astrology"
	_, err = service.UpdateLawyerProfile(ctx, &lawyer, LawyerProfileUpdate{Expertise: &bad})
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_EXPERTISE", se.Code)

	_, err = service.GetLawyerProfile(ctx, &client)
	assert.ErrorIs(t, err, &ServiceError{Kind: KindUnauthorized})
	_, err = service.GetClientProfile(ctx, &lawyer)
	assert.ErrorIs(t, err, &ServiceError{Kind: KindUnauthorized})
}

func TestAccountService_ApproveAndListLawyers(t *testing.T) {
	db, _ := setupServiceTest(t)
	ctx := context.Background()
	service := newTestAccountService(db)
	pending, _ := testutil.CreateLawyer(t, db, "pending@example.com", "Pending Lawyer", models.ExpertiseCivil, false)
	testutil.CreateLawyer(t, db, "approved@example.com", "Approved Lawyer", models.ExpertiseCivil, true)

	unapproved, err := service.ListLawyers(ctx, false)
	require.NoError(t, err)
	require.Len(t, unapproved, 1)
	assert.Equal(t, "pending@example.com", unapproved[0].Email)

	profile, err := service.ApproveLawyer(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, profile.Approved)

	approved, err := service.ListLawyers(ctx, true)
	require.NoError(t, err)
	assert.Len(t, approved, 2)

	_, err = service.ApproveLawyer(ctx, 9999)
	assert.ErrorIs(t, err, &ServiceError{Kind: KindNotFound})
}

func TestAccountService_SearchLawyers(t *testing.T) {
	db, _ := setupServiceTest(t)
	ctx := context.Background()
	testutil.CreateLawyer(t, db, "kamala@example.com", "Kamala Silva", models.ExpertiseFamily, true)
	testutil.CreateLawyer(t, db, "sunil@example.com", "Sunil Fernando", models.ExpertiseCriminal, true)
	testutil.CreateLawyer(t, db, "hidden@example.com", "Kamal Hidden", models.ExpertiseFamily, false)
	testutil.CreateLawyer(t, db, "anne@example.com", "Anne_Marie Dias", models.ExpertiseProperty, true)

	tests := []struct {
		name      string
		search    string
		expertise string
		want      []string
	}{
		{"all approved", "", "", []string{"Kamala Silva", "Sunil Fernando", "Anne_Marie Dias"}},
		{"name contains, case-insensitive", "KAMAL", "", []string{"Kamala Silva"}},
		{"expertise equality, case-insensitive", "", "Criminal", []string{"Sunil Fernando"}},
		{"both filters", "silva", "family", []string{"Kamala Silva"}},
		{"no match", "nobody", "", []string{}},
		{"underscore is literal", "_", "", []string{"Anne_Marie Dias"}},
		{"underscore between letters is literal", "a_a", "", []string{}},
		{"percent is literal", "%", "", []string{}},
		{"backslash is literal", `\`, "", []string{}},
	}

	run := func(t *testing.T, service *AccountService) {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				lawyers, err := service.SearchLawyers(ctx, tt.search, tt.expertise)
				require.NoError(t, err)
				names := []string{}
				for _, l := range lawyers {
					names = append(names, l.FullName)
				}
				assert.Equal(t, tt.want, names)
			})
		}
	}

	t.Run("sql", func(t *testing.T) {
		service := newTestAccountService(db)
		service.index = nil
		run(t, service)
	})

	t.Run("index", func(t *testing.T) {
		index := NewMockLawyerIndex()
		var profiles []models.LawyerProfile
		require.NoError(t, db.Find(&profiles).Error)
		for i := range profiles {
			require.NoError(t, index.IndexLawyer(ctx, LawyerDocumentOf(&profiles[i])))
		}
		service := newTestAccountService(db)
		service.index = index
		run(t, service)
	})

	t.Run("index failure falls back to sql", func(t *testing.T) {
		index := NewMockLawyerIndex()
		index.Err = errors.New("cluster unavailable")
		service := newTestAccountService(db)
		service.index = index
		run(t, service)
	})
}
