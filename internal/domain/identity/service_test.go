package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hms/internal/platform/apperr"
)

// -- Mocks --

type passthroughTx struct{ calls int }

func (t *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
	// referenced marks patients that appointments point at.
	referenced map[uuid.UUID]bool
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: map[uuid.UUID]*Patient{}, referenced: map[uuid.UUID]bool{}}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return apperr.NotFound("patient not found")
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return apperr.NotFound("patient not found")
	}
	if m.referenced[id] {
		return apperr.Reference("patient has appointments or admissions and cannot be deleted")
	}
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) List(_ context.Context) ([]*Patient, error) {
	items := []*Patient{}
	for _, p := range m.patients {
		items = append(items, p)
	}
	return items, nil
}

func (m *mockPatientRepo) ListWithoutActiveAppointments(_ context.Context) ([]*Patient, error) {
	items := []*Patient{}
	for id, p := range m.patients {
		if !m.referenced[id] {
			items = append(items, p)
		}
	}
	return items, nil
}

func (m *mockPatientRepo) CNICExists(_ context.Context, cnic string) (bool, error) {
	for _, p := range m.patients {
		if p.CNIC != nil && *p.CNIC == cnic {
			return true, nil
		}
	}
	return false, nil
}

type mockStaffRepo struct {
	staff   map[uuid.UUID]*Staff
	roles   map[uuid.UUID]string
	doctors map[uuid.UUID]*DoctorProfile
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{
		staff:   map[uuid.UUID]*Staff{},
		roles:   map[uuid.UUID]string{},
		doctors: map[uuid.UUID]*DoctorProfile{},
	}
}

func (m *mockStaffRepo) addRole(name string) uuid.UUID {
	id := uuid.New()
	m.roles[id] = name
	return id
}

func (m *mockStaffRepo) Create(_ context.Context, s *Staff) error {
	s.ID = uuid.New()
	m.staff[s.ID] = s
	return nil
}

func (m *mockStaffRepo) GetByID(_ context.Context, id uuid.UUID) (*Staff, error) {
	s, ok := m.staff[id]
	if !ok {
		return nil, apperr.NotFound("staff member not found")
	}
	return s, nil
}

func (m *mockStaffRepo) Update(_ context.Context, s *Staff) error {
	if _, ok := m.staff[s.ID]; !ok {
		return apperr.NotFound("staff member not found")
	}
	m.staff[s.ID] = s
	return nil
}

func (m *mockStaffRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.staff[id]; !ok {
		return apperr.NotFound("staff member not found")
	}
	delete(m.staff, id)
	return nil
}

func (m *mockStaffRepo) List(_ context.Context, role string) ([]*Staff, error) {
	items := []*Staff{}
	for _, s := range m.staff {
		if role == "" || strings.EqualFold(m.roles[s.RoleID], role) {
			items = append(items, s)
		}
	}
	return items, nil
}

func (m *mockStaffRepo) CheckReferences(_ context.Context, roleID uuid.UUID, departmentID, shiftID *uuid.UUID) (StaffReferences, error) {
	_, roleOK := m.roles[roleID]
	return StaffReferences{RoleOK: roleOK, DepartmentOK: true, ShiftOK: shiftID == nil}, nil
}

func (m *mockStaffRepo) RoleName(_ context.Context, roleID uuid.UUID) (string, error) {
	name, ok := m.roles[roleID]
	if !ok {
		return "", apperr.NotFound("role not found")
	}
	return name, nil
}

func (m *mockStaffRepo) UpsertDoctor(_ context.Context, staffID uuid.UUID, p *DoctorProfile) error {
	m.doctors[staffID] = p
	return nil
}

func (m *mockStaffRepo) ListDoctors(_ context.Context) ([]*Doctor, error) {
	items := []*Doctor{}
	for staffID, p := range m.doctors {
		items = append(items, &Doctor{ID: staffID, StaffID: staffID, Name: m.staff[staffID].Name,
			BaseFee: p.BaseFee, FollowupFee: p.FollowupFee})
	}
	return items, nil
}

func (m *mockStaffRepo) GetDoctor(_ context.Context, id uuid.UUID) (*Doctor, error) {
	p, ok := m.doctors[id]
	if !ok {
		return nil, apperr.NotFound("doctor not found")
	}
	return &Doctor{ID: id, StaffID: id, BaseFee: p.BaseFee, FollowupFee: p.FollowupFee}, nil
}

func (m *mockStaffRepo) ListRoles(_ context.Context) ([]*Role, error) {
	items := []*Role{}
	for id, name := range m.roles {
		items = append(items, &Role{ID: id, Name: name})
	}
	return items, nil
}

func (m *mockStaffRepo) ListShifts(_ context.Context) ([]*Shift, error) {
	return []*Shift{{ID: uuid.New(), ShiftType: "Morning", StartTime: "08:00", EndTime: "16:00"}}, nil
}

// mockWards tracks free beds per ward.
type mockWards struct {
	free map[uuid.UUID]int
}

func (m *mockWards) Occupy(_ context.Context, id uuid.UUID) error {
	if m.free[id] <= 0 {
		return apperr.Validation("ward is full or does not exist")
	}
	m.free[id]--
	return nil
}

func (m *mockWards) Vacate(_ context.Context, id uuid.UUID) error {
	m.free[id]++
	return nil
}

type mockLogins struct {
	users map[string]uuid.UUID
}

func (m *mockLogins) UsernameExists(_ context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *mockLogins) CreatePatientLogin(_ context.Context, username, _ string, patientID uuid.UUID) error {
	m.users[username] = patientID
	return nil
}

type testDeps struct {
	svc      *Service
	patients *mockPatientRepo
	staff    *mockStaffRepo
	wards    *mockWards
	logins   *mockLogins
	tx       *passthroughTx
}

func newTestDeps() *testDeps {
	d := &testDeps{
		patients: newMockPatientRepo(),
		staff:    newMockStaffRepo(),
		wards:    &mockWards{free: map[uuid.UUID]int{}},
		logins:   &mockLogins{users: map[string]uuid.UUID{}},
		tx:       &passthroughTx{},
	}
	d.svc = NewService(d.patients, d.staff, d.wards, d.logins, d.tx)
	return d
}

func newTestService() *Service { return newTestDeps().svc }

func strPtr(s string) *string { return &s }

func registrationPatient(cnic string) Patient {
	bg := uuid.New()
	return Patient{
		Name:         "Ayesha Khan",
		Phone:        strPtr("03001234567"),
		CNIC:         strPtr(cnic),
		Gender:       strPtr("Female"),
		BloodGroupID: &bg,
		RelativeName: strPtr("Imran Khan"),
	}
}

// -- Patient Tests --

func TestService_CreatePatient_NameRequired(t *testing.T) {
	svc := newTestService()
	err := svc.CreatePatient(context.Background(), &Patient{Name: "  "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_CreatePatient_BadDate(t *testing.T) {
	svc := newTestService()
	err := svc.CreatePatient(context.Background(), &Patient{Name: "A", DateOfBirth: strPtr("01/02/1990")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_CreatePatient_OccupiesWard(t *testing.T) {
	d := newTestDeps()
	ward := uuid.New()
	d.wards.free[ward] = 1

	p := &Patient{Name: "Bilal", WardID: &ward}
	if err := d.svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if d.wards.free[ward] != 0 {
		t.Errorf("expected ward to be full, free=%d", d.wards.free[ward])
	}
	if d.tx.calls != 1 {
		t.Errorf("expected one transaction, got %d", d.tx.calls)
	}

	err := d.svc.CreatePatient(context.Background(), &Patient{Name: "Sana", WardID: &ward})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected full ward to be rejected, got %v", err)
	}
	if len(d.patients.patients) != 1 {
		t.Errorf("expected no second patient, got %d", len(d.patients.patients))
	}
}

func TestService_UpdatePatient_MovesWard(t *testing.T) {
	d := newTestDeps()
	a, b := uuid.New(), uuid.New()
	d.wards.free[a] = 1
	d.wards.free[b] = 1
	p := &Patient{Name: "Hamza", WardID: &a}
	if err := d.svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	moved := &Patient{ID: p.ID, Name: "Hamza", WardID: &b}
	if err := d.svc.UpdatePatient(context.Background(), moved); err != nil {
		t.Fatalf("UpdatePatient: %v", err)
	}
	if d.wards.free[a] != 1 || d.wards.free[b] != 0 {
		t.Errorf("expected bed moved from a to b, free a=%d b=%d", d.wards.free[a], d.wards.free[b])
	}
}

func TestService_UpdatePatient_SameWardKeepsCapacity(t *testing.T) {
	d := newTestDeps()
	a := uuid.New()
	d.wards.free[a] = 1
	p := &Patient{Name: "Hamza", WardID: &a}
	if err := d.svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	same := a
	if err := d.svc.UpdatePatient(context.Background(), &Patient{ID: p.ID, Name: "Hamza A.", WardID: &same}); err != nil {
		t.Fatalf("UpdatePatient: %v", err)
	}
	if d.wards.free[a] != 0 {
		t.Errorf("expected capacity untouched, free=%d", d.wards.free[a])
	}
}

func TestService_DeletePatient_VacatesWard(t *testing.T) {
	d := newTestDeps()
	w := uuid.New()
	d.wards.free[w] = 1
	p := &Patient{Name: "Zara", WardID: &w}
	if err := d.svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if err := d.svc.DeletePatient(context.Background(), p.ID); err != nil {
		t.Fatalf("DeletePatient: %v", err)
	}
	if d.wards.free[w] != 1 {
		t.Errorf("expected bed released, free=%d", d.wards.free[w])
	}
}

func TestService_DeletePatient_Referenced(t *testing.T) {
	d := newTestDeps()
	w := uuid.New()
	d.wards.free[w] = 1
	p := &Patient{Name: "Zara", WardID: &w}
	if err := d.svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	d.patients.referenced[p.ID] = true

	err := d.svc.DeletePatient(context.Background(), p.ID)
	if !apperr.Is(err, apperr.KindReference) {
		t.Fatalf("expected reference error, got %v", err)
	}
	if d.wards.free[w] != 0 {
		t.Errorf("expected bed still held, free=%d", d.wards.free[w])
	}
}

func TestService_DeletePatient_NotFound(t *testing.T) {
	svc := newTestService()
	if err := svc.DeletePatient(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_RegisterPatient_MissingFields(t *testing.T) {
	svc := newTestService()
	err := svc.RegisterPatient(context.Background(), &Patient{Name: "Ali"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"phone", "cnic", "gender", "blood_group_id", "relative_name"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected %q in %q", field, err.Error())
		}
	}
}

func TestService_RegisterPatient_DuplicateCNIC(t *testing.T) {
	svc := newTestService()
	first := registrationPatient("35202-1234567-1")
	if err := svc.RegisterPatient(context.Background(), &first); err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}
	second := registrationPatient("35202-1234567-1")
	err := svc.RegisterPatient(context.Background(), &second)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_SelfRegister(t *testing.T) {
	d := newTestDeps()
	r := &SelfRegistration{Patient: registrationPatient("42101-7654321-0"), Username: "ayesha", Password: "secret1"}
	if err := d.svc.SelfRegister(context.Background(), r); err != nil {
		t.Fatalf("SelfRegister: %v", err)
	}
	if d.logins.users["ayesha"] != r.ID {
		t.Errorf("expected login bound to patient %s", r.ID)
	}
}

func TestService_SelfRegister_DuplicateUsername(t *testing.T) {
	d := newTestDeps()
	d.logins.users["ayesha"] = uuid.New()
	r := &SelfRegistration{Patient: registrationPatient("42101-7654321-0"), Username: "ayesha", Password: "secret1"}

	err := d.svc.SelfRegister(context.Background(), r)
	if !apperr.Is(err, apperr.KindConflict) || err.Error() != "Username already exists" {
		t.Fatalf("expected username conflict, got %v", err)
	}
	if len(d.patients.patients) != 0 {
		t.Errorf("expected no patient written")
	}
}

func TestService_SelfRegister_ShortPassword(t *testing.T) {
	svc := newTestService()
	r := &SelfRegistration{Patient: registrationPatient("1"), Username: "x", Password: "abc"}
	if err := svc.SelfRegister(context.Background(), r); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// -- Staff Tests --

func TestService_CreateStaff_Doctor(t *testing.T) {
	d := newTestDeps()
	role := d.staff.addRole("Doctor")
	st := &Staff{Name: "Dr. Farah", RoleID: role, Doctor: &DoctorProfile{BaseFee: 1500, FollowupFee: 800}}

	if err := d.svc.CreateStaff(context.Background(), st); err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}
	p, ok := d.staff.doctors[st.ID]
	if !ok {
		t.Fatal("expected doctor profile")
	}
	if p.BaseFee != 1500 || p.FollowupFee != 800 {
		t.Errorf("unexpected fees: %+v", p)
	}
}

func TestService_CreateStaff_NurseHasNoProfile(t *testing.T) {
	d := newTestDeps()
	role := d.staff.addRole("nurse")
	st := &Staff{Name: "Nadia", RoleID: role, Doctor: &DoctorProfile{BaseFee: 10}}
	if err := d.svc.CreateStaff(context.Background(), st); err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}
	if st.Doctor != nil {
		t.Error("expected doctor profile dropped for nurse")
	}
	if len(d.staff.doctors) != 0 {
		t.Error("expected no doctors row")
	}
}

func TestService_CreateStaff_InvalidReferences(t *testing.T) {
	d := newTestDeps()
	shift := uuid.New()
	err := d.svc.CreateStaff(context.Background(), &Staff{Name: "X", RoleID: uuid.New(), ShiftID: &shift})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "role_id") || !strings.Contains(err.Error(), "shift_id") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestService_CreateStaff_NegativeFee(t *testing.T) {
	d := newTestDeps()
	role := d.staff.addRole("doctor")
	err := d.svc.CreateStaff(context.Background(), &Staff{Name: "Dr. X", RoleID: role, Doctor: &DoctorProfile{BaseFee: -1}})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_ListStaff_ByRole(t *testing.T) {
	d := newTestDeps()
	doc := d.staff.addRole("doctor")
	nurse := d.staff.addRole("nurse")
	for _, st := range []*Staff{{Name: "A", RoleID: doc}, {Name: "B", RoleID: nurse}, {Name: "C", RoleID: nurse}} {
		if err := d.svc.CreateStaff(context.Background(), st); err != nil {
			t.Fatalf("CreateStaff: %v", err)
		}
	}
	items, err := d.svc.ListStaff(context.Background(), "Nurse")
	if err != nil {
		t.Fatalf("ListStaff: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 nurses, got %d", len(items))
	}
	all, _ := d.svc.ListStaff(context.Background(), "")
	if len(all) != 3 {
		t.Errorf("expected 3 staff, got %d", len(all))
	}
}

func TestService_UpdateStaff_NotFound(t *testing.T) {
	d := newTestDeps()
	role := d.staff.addRole("nurse")
	err := d.svc.UpdateStaff(context.Background(), &Staff{ID: uuid.New(), Name: "X", RoleID: role})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
