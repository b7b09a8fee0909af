package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/repositories"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// In-memory repository fakes. They guard state with a mutex and copy records
// on the way in and out, so tests can exercise the same interleavings the
// Postgres implementations allow.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) addParticipant(email string, pType models.ParticipantType) *models.User {
	u := &models.User{
		FirstName:       "Test",
		LastName:        "User",
		Email:           strings.ToLower(email),
		PasswordHash:    "x",
		Role:            models.RoleParticipant,
		ParticipantType: &pType,
	}
	if err := r.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repositories.ErrUserEmailConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) ListParticipantsByEmails(_ context.Context, emails []string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.User
	for _, u := range r.users {
		if u.Role != models.RoleParticipant {
			continue
		}
		for _, email := range emails {
			if strings.EqualFold(u.Email, email) {
				cp := *u
				result = append(result, &cp)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, id int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) SetOrganizerProfileID(_ context.Context, userID int, organizerID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.OrganizerProfileID = organizerID
	return nil
}

func (r *fakeUserRepo) UpdateFollowing(_ context.Context, userID int, following []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Following = append([]int(nil), following...)
	return nil
}

func (r *fakeUserRepo) CountByRole(_ context.Context, role models.UserRole) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, u := range r.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeOrganizerRepo struct {
	mu     sync.Mutex
	nextID int
	orgs   map[int]*models.Organizer
}

func newFakeOrganizerRepo() *fakeOrganizerRepo {
	return &fakeOrganizerRepo{orgs: make(map[int]*models.Organizer)}
}

func (r *fakeOrganizerRepo) addActive(name string) *models.Organizer {
	org := &models.Organizer{
		Name:         name,
		Category:     "technical",
		ContactEmail: strings.ToLower(name) + "@fest.test",
		Status:       models.OrganizerActive,
	}
	if err := r.Create(context.Background(), org); err != nil {
		panic(err)
	}
	return org
}

func (r *fakeOrganizerRepo) Create(_ context.Context, org *models.Organizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orgs {
		if strings.EqualFold(existing.Name, org.Name) {
			return repositories.ErrOrganizerNameConflict
		}
	}
	r.nextID++
	org.ID = r.nextID
	org.CreatedAt = time.Now()
	cp := *org
	r.orgs[org.ID] = &cp
	return nil
}

func (r *fakeOrganizerRepo) GetByID(_ context.Context, id int) (*models.Organizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[id]
	if !ok {
		return nil, repositories.ErrOrganizerNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrganizerRepo) GetByAccountID(_ context.Context, accountID int) (*models.Organizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.AccountID == accountID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repositories.ErrOrganizerNotFound
}

func (r *fakeOrganizerRepo) List(_ context.Context, includeArchived bool) ([]*models.Organizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Organizer
	for _, o := range r.orgs {
		if !includeArchived && o.Status == models.OrganizerArchived {
			continue
		}
		cp := *o
		result = append(result, &cp)
	}
	return result, nil
}

func (r *fakeOrganizerRepo) Update(_ context.Context, org *models.Organizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[org.ID]; !ok {
		return repositories.ErrOrganizerNotFound
	}
	cp := *org
	r.orgs[org.ID] = &cp
	return nil
}

func (r *fakeOrganizerRepo) UpdateStatus(_ context.Context, id int, status models.OrganizerStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[id]
	if !ok {
		return repositories.ErrOrganizerNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeOrganizerRepo) CountByStatus(_ context.Context, status models.OrganizerStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, o := range r.orgs {
		if o.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeOrganizerRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[id]; !ok {
		return repositories.ErrOrganizerNotFound
	}
	delete(r.orgs, id)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	nextID int
	events map[int]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int]*models.Event)}
}

func (r *fakeEventRepo) add(event *models.Event) *models.Event {
	if err := r.Create(context.Background(), event); err != nil {
		panic(err)
	}
	return event
}

func copyEvent(e *models.Event) *models.Event {
	cp := *e
	cp.Tags = append([]string(nil), e.Tags...)
	cp.FormSchema = append([]models.FormField(nil), e.FormSchema...)
	cp.MerchItems = append([]models.MerchItem(nil), e.MerchItems...)
	return &cp
}

func (r *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = r.nextID
	event.CreatedAt = time.Now()
	r.events[event.ID] = copyEvent(event)
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	return copyEvent(e), nil
}

func (r *fakeEventRepo) List(_ context.Context, filter repositories.EventFilter) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Event
	for _, e := range r.events {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.EventType != nil && e.EventType != *filter.EventType {
			continue
		}
		if filter.OrganizerID != nil && e.OrganizerID != *filter.OrganizerID {
			continue
		}
		result = append(result, copyEvent(e))
	}
	return result, nil
}

func (r *fakeEventRepo) ListByIDs(_ context.Context, ids []int) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Event
	for _, id := range ids {
		if e, ok := r.events[id]; ok {
			result = append(result, copyEvent(e))
		}
	}
	return result, nil
}

func (r *fakeEventRepo) ListEnded(_ context.Context, now time.Time) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Event
	for _, e := range r.events {
		if e.Status == models.EventPublished && e.EndDate != nil && e.EndDate.Before(now) {
			result = append(result, copyEvent(e))
		}
	}
	return result, nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return repositories.ErrEventNotFound
	}
	r.events[event.ID] = copyEvent(event)
	return nil
}

func (r *fakeEventRepo) UpdateMerchItems(_ context.Context, id int, items []models.MerchItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.MerchItems = append([]models.MerchItem(nil), items...)
	return nil
}

func (r *fakeEventRepo) UpdatePosterKey(_ context.Context, id int, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.PosterKey = key
	return nil
}

func (r *fakeEventRepo) UpdateStatus(_ context.Context, id int, status models.EventStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.Status = status
	return nil
}

// ReserveSeats mirrors the conditional-update claim: it succeeds only when
// the limit still has room, and always succeeds on unlimited events.
func (r *fakeEventRepo) ReserveSeats(_ context.Context, id int, seats int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return false, repositories.ErrEventNotFound
	}
	if e.RegistrationLimit > 0 && e.RegistrationCount+seats > e.RegistrationLimit {
		return false, nil
	}
	e.RegistrationCount += seats
	return true, nil
}

func (r *fakeEventRepo) ReleaseSeats(_ context.Context, id int, seats int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.RegistrationCount -= seats
	if e.RegistrationCount < 0 {
		e.RegistrationCount = 0
	}
	return nil
}

func (r *fakeEventRepo) CountByStatus(_ context.Context, status models.EventStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.events {
		if e.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeEventRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repositories.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) registrationCount(id int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[id].RegistrationCount
}

type fakeRegistrationRepo struct {
	mu     sync.Mutex
	nextID int
	regs   map[int]*models.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{regs: make(map[int]*models.Registration)}
}

func copyRegistration(reg *models.Registration) *models.Registration {
	cp := *reg
	cp.TeamMembers = append([]int(nil), reg.TeamMembers...)
	cp.FormResponses = append([]models.FormResponse(nil), reg.FormResponses...)
	return &cp
}

func (r *fakeRegistrationRepo) activeExists(eventID, userID int) bool {
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.UserID == userID && reg.Status != models.RegistrationCancelled {
			return true
		}
	}
	return false
}

func (r *fakeRegistrationRepo) Create(_ context.Context, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeExists(reg.EventID, reg.UserID) {
		return repositories.ErrRegistrationConflict
	}
	r.nextID++
	reg.ID = r.nextID
	reg.CreatedAt = time.Now()
	r.regs[reg.ID] = copyRegistration(reg)
	return nil
}

func (r *fakeRegistrationRepo) InsertIfAbsent(_ context.Context, reg *models.Registration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeExists(reg.EventID, reg.UserID) {
		return false, nil
	}
	r.nextID++
	reg.ID = r.nextID
	reg.CreatedAt = time.Now()
	r.regs[reg.ID] = copyRegistration(reg)
	return true, nil
}

func (r *fakeRegistrationRepo) GetByID(_ context.Context, id int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	return copyRegistration(reg), nil
}

func (r *fakeRegistrationRepo) GetByEventAndUser(_ context.Context, eventID, userID int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Registration
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.UserID == userID {
			if latest == nil || reg.ID > latest.ID {
				latest = reg
			}
		}
	}
	if latest == nil {
		return nil, repositories.ErrRegistrationNotFound
	}
	return copyRegistration(latest), nil
}

func (r *fakeRegistrationRepo) ExistsActiveByEventAndUser(_ context.Context, eventID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeExists(eventID, userID), nil
}

func (r *fakeRegistrationRepo) CountActiveByEvent(_ context.Context, eventID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.Status != models.RegistrationCancelled {
			count++
		}
	}
	return count, nil
}

func (r *fakeRegistrationRepo) CountActiveByEventAndUsers(_ context.Context, eventID int, userIDs []int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, reg := range r.regs {
		if reg.EventID != eventID || reg.Status == models.RegistrationCancelled {
			continue
		}
		for _, id := range userIDs {
			if reg.UserID == id {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *fakeRegistrationRepo) ListByEvent(_ context.Context, eventID int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Registration
	for _, reg := range r.regs {
		if reg.EventID == eventID {
			result = append(result, copyRegistration(reg))
		}
	}
	return result, nil
}

func (r *fakeRegistrationRepo) ListByUser(_ context.Context, userID int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Registration
	for _, reg := range r.regs {
		if reg.UserID == userID {
			result = append(result, copyRegistration(reg))
		}
	}
	return result, nil
}

func (r *fakeRegistrationRepo) UpdateStatus(_ context.Context, id int, status models.RegistrationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = status
	return nil
}

func (r *fakeRegistrationRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regs), nil
}

func (r *fakeRegistrationRepo) CountAttendedByEvent(_ context.Context, eventID int) (int, error) {
	return r.countByStatus(eventID, models.RegistrationAttended), nil
}

func (r *fakeRegistrationRepo) CountCancelledByEvent(_ context.Context, eventID int) (int, error) {
	return r.countByStatus(eventID, models.RegistrationCancelled), nil
}

func (r *fakeRegistrationRepo) countByStatus(eventID int, status models.RegistrationStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.Status == status {
			count++
		}
	}
	return count
}

func (r *fakeRegistrationRepo) backdate(id int, createdAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.regs[id]; ok {
		reg.CreatedAt = createdAt
	}
}

func (r *fakeRegistrationRepo) TrendingEventIDs(_ context.Context, since time.Time, limit int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[int]int)
	for _, reg := range r.regs {
		if reg.Status != models.RegistrationCancelled && !reg.CreatedAt.Before(since) {
			counts[reg.EventID]++
		}
	}
	var ids []int
	for id := range counts {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if counts[ids[j]] > counts[ids[i]] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeTeamRepo struct {
	mu     sync.Mutex
	nextID int
	teams  map[int]*models.TeamRegistration
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.TeamRegistration)}
}

func copyTeam(t *models.TeamRegistration) *models.TeamRegistration {
	cp := *t
	cp.Members = append([]models.TeamMember(nil), t.Members...)
	cp.Invites = append([]models.TeamInvite(nil), t.Invites...)
	cp.FormResponses = append([]models.FormResponse(nil), t.FormResponses...)
	return &cp
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.TeamRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.teams {
		if existing.EventID == team.EventID && existing.InviteCode == team.InviteCode {
			return repositories.ErrTeamInviteCodeConflict
		}
		if existing.EventID == team.EventID && existing.LeaderID == team.LeaderID && existing.Status == models.TeamPending {
			return repositories.ErrTeamLeaderConflict
		}
	}
	r.nextID++
	team.ID = r.nextID
	team.CreatedAt = time.Now()
	r.teams[team.ID] = copyTeam(team)
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.TeamRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return copyTeam(t), nil
}

func (r *fakeTeamRepo) GetPendingByEventAndCode(_ context.Context, eventID int, code string) (*models.TeamRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.EventID == eventID && t.InviteCode == code && t.Status == models.TeamPending {
			return copyTeam(t), nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) GetPendingByEventAndInvitee(_ context.Context, eventID int, email string) (*models.TeamRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.TeamRegistration
	for _, t := range r.teams {
		if t.EventID != eventID || t.Status != models.TeamPending {
			continue
		}
		for i := range t.Invites {
			if t.Invites[i].Email == email && t.Invites[i].Status == models.InvitePending {
				if latest == nil || t.ID > latest.ID {
					latest = t
				}
			}
		}
	}
	if latest == nil {
		return nil, repositories.ErrTeamNotFound
	}
	return copyTeam(latest), nil
}

func (r *fakeTeamRepo) FindForUser(_ context.Context, eventID, userID int, email string) (*models.TeamRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.TeamRegistration
	for _, t := range r.teams {
		if t.EventID != eventID {
			continue
		}
		match := false
		for i := range t.Members {
			if t.Members[i].UserID == userID && t.Members[i].Status == models.MemberAccepted {
				match = true
			}
		}
		for i := range t.Invites {
			if t.Invites[i].Email == email {
				match = true
			}
		}
		if match && (latest == nil || t.ID > latest.ID) {
			latest = t
		}
	}
	if latest == nil {
		return nil, repositories.ErrTeamNotFound
	}
	return copyTeam(latest), nil
}

func (r *fakeTeamRepo) AnyActiveMembershipByEventAndUsers(_ context.Context, eventID int, userIDs []int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.EventID != eventID || t.Status != models.TeamPending {
			continue
		}
		for i := range t.Members {
			if t.Members[i].Status != models.MemberAccepted {
				continue
			}
			for _, id := range userIDs {
				if t.Members[i].UserID == id {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (r *fakeTeamRepo) HasPendingTeamAsLeader(_ context.Context, eventID, leaderID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.EventID == eventID && t.LeaderID == leaderID && t.Status == models.TeamPending {
			return true, nil
		}
	}
	return false, nil
}

// UpdateMembersAndInvites mirrors the version-guarded UPDATE in the Postgres
// implementation: the write only lands on the version the caller read.
func (r *fakeTeamRepo) UpdateMembersAndInvites(_ context.Context, team *models.TeamRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[team.ID]
	if !ok || t.Status != models.TeamPending || t.Version != team.Version {
		return repositories.ErrTeamConflict
	}
	t.Members = append([]models.TeamMember(nil), team.Members...)
	t.Invites = append([]models.TeamInvite(nil), team.Invites...)
	t.Version++
	team.Version = t.Version
	return nil
}

func (r *fakeTeamRepo) CompleteIfPending(_ context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok || t.Status != models.TeamPending {
		return false, nil
	}
	now := time.Now()
	t.Status = models.TeamCompleted
	t.CompletedAt = &now
	return true, nil
}

func (r *fakeTeamRepo) ListByEvent(_ context.Context, eventID int) ([]*models.TeamRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.TeamRegistration
	for _, t := range r.teams {
		if t.EventID == eventID {
			result = append(result, copyTeam(t))
		}
	}
	return result, nil
}

func (r *fakeTeamRepo) CountByEventAndStatus(_ context.Context, eventID int, status models.TeamStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, t := range r.teams {
		if t.EventID == eventID && t.Status == status {
			count++
		}
	}
	return count, nil
}

type fakeMerchOrderRepo struct {
	mu     sync.Mutex
	nextID int
	orders map[int]*models.MerchOrder
}

func newFakeMerchOrderRepo() *fakeMerchOrderRepo {
	return &fakeMerchOrderRepo{orders: make(map[int]*models.MerchOrder)}
}

func (r *fakeMerchOrderRepo) Create(_ context.Context, order *models.MerchOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = time.Now()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeMerchOrderRepo) GetByID(_ context.Context, id int) (*models.MerchOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repositories.ErrMerchOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeMerchOrderRepo) SumActiveQuantity(_ context.Context, eventID, userID int, itemName, variant string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, o := range r.orders {
		if o.EventID == eventID && o.UserID == userID && o.ItemName == itemName && o.Variant == variant && o.CountsTowardLimit() {
			sum += o.Quantity
		}
	}
	return sum, nil
}

func (r *fakeMerchOrderRepo) UpdateProof(_ context.Context, id int, proofKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status == models.OrderApproved {
		return repositories.ErrMerchOrderNotFound
	}
	o.PaymentProof = &proofKey
	o.Status = models.OrderPendingApproval
	o.ReviewComment = ""
	o.ReviewedBy = nil
	o.ReviewedAt = nil
	return nil
}

func (r *fakeMerchOrderRepo) Review(_ context.Context, order *models.MerchOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[order.ID]
	if !ok || o.Status != models.OrderPendingApproval {
		return repositories.ErrMerchOrderNotFound
	}
	now := time.Now()
	o.Status = order.Status
	o.ReviewComment = order.ReviewComment
	o.ReviewedBy = order.ReviewedBy
	o.ReviewedAt = &now
	order.ReviewedAt = &now
	return nil
}

func (r *fakeMerchOrderRepo) ListByUser(_ context.Context, userID int) ([]*models.MerchOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.MerchOrder
	for _, o := range r.orders {
		if o.UserID == userID {
			cp := *o
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *fakeMerchOrderRepo) ListByEvent(_ context.Context, eventID int, status *models.MerchOrderStatus) ([]*models.MerchOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.MerchOrder
	for _, o := range r.orders {
		if o.EventID != eventID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		cp := *o
		result = append(result, &cp)
	}
	return result, nil
}

func (r *fakeMerchOrderRepo) CountByEventAndStatus(_ context.Context, eventID int, status models.MerchOrderStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, o := range r.orders {
		if o.EventID == eventID && o.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeMerchOrderRepo) ApprovedRevenueByEvent(_ context.Context, eventID int) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total float64
	for _, o := range r.orders {
		if o.EventID == eventID && o.Status == models.OrderApproved {
			total += o.TotalAmount
		}
	}
	return total, nil
}

// fakeUploader keeps uploaded blobs in memory.
type fakeUploader struct {
	mu      sync.Mutex
	stored  map[string][]byte
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{stored: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stored[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key), ETag: "fake"}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.stored, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

// fakeTicketIssuer hands out sequential ticket ids.
type fakeTicketIssuer struct {
	mu sync.Mutex
	n  int
}

func (f *fakeTicketIssuer) Issue() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	id := fmt.Sprintf("ticket-%d", f.n)
	return id, "https://example.com/qr/" + id
}

// fakeNotifier records sent mail so tests can assert on it without SMTP.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) record(kind, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, kind+":"+email)
	return nil
}

func (f *fakeNotifier) SendTicketEmail(email, eventName, ticketID, qrCodeURL string) error {
	return f.record("ticket", email)
}

func (f *fakeNotifier) SendTeamInviteEmail(email, teamName, eventName, inviteCode string) error {
	return f.record("invite", email)
}

func (f *fakeNotifier) SendTeamFinalizedEmail(email, teamName, eventName, ticketID string) error {
	return f.record("finalized", email)
}

func (f *fakeNotifier) SendOrderReviewedEmail(email, eventName, itemName, status, comment string) error {
	return f.record("reviewed", email)
}

func (f *fakeNotifier) SendOrganizerCredentialsEmail(email, name, password string) error {
	return f.record("credentials", email)
}
