package engage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"elogia.app/internal/auth"
)

// InMemory implements Store with in-process concurrency safety. It backs the
// test suites and the development mode of cmd/api; production deployments use
// the PostgreSQL store.
type InMemory struct {
	mu sync.RWMutex

	nextID int64

	companies     map[int64]*Company
	users         map[int64]*User
	teams         map[int64]*Team
	teamMembers   map[int64]map[int64]struct{}
	teamSupers    map[int64]map[int64]struct{}
	categories    map[int64]*Category
	items         map[int64]*Item
	elogios       map[int64]*Elogio
	notifications map[int64]*Notification
	surveys       map[int64]*Survey
	responses     map[int64][]*SurveyResponse

	transactions []PointTransaction
	txSeq        int64
	idem         map[idemRef]PointTransaction

	permissions map[int64]map[auth.Key]auth.PermissionRecord
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		companies:     make(map[int64]*Company),
		users:         make(map[int64]*User),
		teams:         make(map[int64]*Team),
		teamMembers:   make(map[int64]map[int64]struct{}),
		teamSupers:    make(map[int64]map[int64]struct{}),
		categories:    make(map[int64]*Category),
		items:         make(map[int64]*Item),
		elogios:       make(map[int64]*Elogio),
		notifications: make(map[int64]*Notification),
		surveys:       make(map[int64]*Survey),
		responses:     make(map[int64][]*SurveyResponse),
		idem:          make(map[idemRef]PointTransaction),
		permissions:   make(map[int64]map[auth.Key]auth.PermissionRecord),
	}
}

func (s *InMemory) allocID() int64 {
	s.nextID++
	return s.nextID
}

func (s *InMemory) Companies() CompanyStore            { return memCompanies{s} }
func (s *InMemory) Users() UserStore                   { return memUsers{s} }
func (s *InMemory) Teams() TeamStore                   { return memTeams{s} }
func (s *InMemory) Categories() CategoryStore          { return memCategories{s} }
func (s *InMemory) Items() ItemStore                   { return memItems{s} }
func (s *InMemory) Elogios() ElogioStore               { return memElogios{s} }
func (s *InMemory) Notifications() NotificationStore   { return memNotifications{s} }
func (s *InMemory) Surveys() SurveyStore               { return memSurveys{s} }
func (s *InMemory) Points() PointStore                 { return memPoints{s} }
func (s *InMemory) Permissions() auth.PermissionStore  { return memPermissions{s} }

// Companies -----------------------------------------------------------------

type memCompanies struct{ s *InMemory }

func (m memCompanies) Create(_ context.Context, c *Company) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.s.allocID()
	}
	if c.Status == "" {
		c.Status = CompanyStatusActive
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	m.s.companies[c.ID] = &cp
	return nil
}

func (m memCompanies) Find(_ context.Context, id int64) (*Company, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	c, ok := m.s.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCompanies) List(_ context.Context) ([]*Company, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]*Company, 0, len(m.s.companies))
	for _, c := range m.s.companies {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Users ---------------------------------------------------------------------

type memUsers struct{ s *InMemory }

func (m memUsers) Create(_ context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range m.s.users {
		if existing.Email == email {
			return ErrConflict
		}
	}
	if u.ID == 0 {
		u.ID = m.s.allocID()
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	u.Email = email
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.s.users[u.ID] = &cp
	return nil
}

func (m memUsers) Find(_ context.Context, id int64) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m memUsers) ListByCompany(_ context.Context, companyID int64) ([]*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*User
	for _, u := range m.s.users {
		if u.CompanyID == companyID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memUsers) Update(_ context.Context, id int64, upd UserUpdate) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (m memUsers) UpdatePassword(_ context.Context, userID int64, passwordHash string, mustChange bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.MustChangePassword = mustChange
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m memUsers) SetStatus(_ context.Context, userID int64, status string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Status = status
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Teams ---------------------------------------------------------------------

type memTeams struct{ s *InMemory }

func (m memTeams) Create(_ context.Context, t *Team) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.s.allocID()
	}
	t.CreatedAt = time.Now().UTC()
	cp := *t
	m.s.teams[t.ID] = &cp
	m.s.teamMembers[t.ID] = make(map[int64]struct{})
	m.s.teamSupers[t.ID] = make(map[int64]struct{})
	return nil
}

func (m memTeams) Find(_ context.Context, id int64) (*Team, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	t, ok := m.s.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m memTeams) ListByCompany(_ context.Context, companyID int64) ([]*Team, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Team
	for _, t := range m.s.teams {
		if t.CompanyID == companyID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memTeams) AddMember(_ context.Context, teamID, userID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	members, ok := m.s.teamMembers[teamID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.s.users[userID]; !ok {
		return ErrNotFound
	}
	members[userID] = struct{}{}
	return nil
}

func (m memTeams) Members(_ context.Context, teamID int64) ([]*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	members, ok := m.s.teamMembers[teamID]
	if !ok {
		return nil, ErrNotFound
	}
	var out []*User
	for userID := range members {
		if u, ok := m.s.users[userID]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memTeams) AssignSupervisor(_ context.Context, teamID, userID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	supers, ok := m.s.teamSupers[teamID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.s.users[userID]; !ok {
		return ErrNotFound
	}
	supers[userID] = struct{}{}
	return nil
}

func (m memTeams) IsTeamSupervisor(_ context.Context, userID, teamID int64) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	supers, ok := m.s.teamSupers[teamID]
	if !ok {
		return false, nil
	}
	_, ok = supers[userID]
	return ok, nil
}

func (m memTeams) SupervisorTeamIDs(_ context.Context, userID int64) ([]int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []int64
	for teamID, supers := range m.s.teamSupers {
		if _, ok := supers[userID]; ok {
			out = append(out, teamID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m memTeams) Analytics(_ context.Context, teamID int64) (TeamAnalytics, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	members, ok := m.s.teamMembers[teamID]
	if !ok {
		return TeamAnalytics{}, ErrNotFound
	}
	stats := TeamAnalytics{TeamID: teamID, Members: len(members)}
	for _, e := range m.s.elogios {
		if _, ok := members[e.FromUserID]; ok {
			stats.ElogiosSent++
		}
		if _, ok := members[e.ToUserID]; ok {
			stats.ElogiosReceived++
			stats.PointsAwarded += e.Points
		}
	}
	return stats, nil
}

// Categories ----------------------------------------------------------------

type memCategories struct{ s *InMemory }

func (m memCategories) Create(_ context.Context, c *Category) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.s.allocID()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	m.s.categories[c.ID] = &cp
	return nil
}

func (m memCategories) Find(_ context.Context, id int64) (*Category, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	c, ok := m.s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCategories) ListByCompany(_ context.Context, companyID int64) ([]*Category, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Category
	for _, c := range m.s.categories {
		if c.CompanyID == companyID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memCategories) Update(_ context.Context, id int64, upd CategoryUpdate) (*Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Points != nil {
		c.Points = *upd.Points
	}
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	return &cp, nil
}

func (m memCategories) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.categories, id)
	return nil
}

// Items ---------------------------------------------------------------------

type memItems struct{ s *InMemory }

func (m memItems) Create(_ context.Context, it *Item) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if it.ID == 0 {
		it.ID = m.s.allocID()
	}
	now := time.Now().UTC()
	it.CreatedAt, it.UpdatedAt = now, now
	cp := *it
	m.s.items[it.ID] = &cp
	return nil
}

func (m memItems) Find(_ context.Context, id int64) (*Item, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	it, ok := m.s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m memItems) ListByCompany(_ context.Context, companyID int64) ([]*Item, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Item
	for _, it := range m.s.items {
		if it.CompanyID == companyID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memItems) Update(_ context.Context, id int64, upd ItemUpdate) (*Item, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	it, ok := m.s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		it.Name = *upd.Name
	}
	if upd.Description != nil {
		it.Description = *upd.Description
	}
	if upd.Price != nil {
		it.Price = *upd.Price
	}
	if upd.Stock != nil {
		it.Stock = *upd.Stock
	}
	it.UpdatedAt = time.Now().UTC()
	cp := *it
	return &cp, nil
}

func (m memItems) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.items, id)
	return nil
}

// Elogios -------------------------------------------------------------------

type memElogios struct{ s *InMemory }

func (m memElogios) Create(_ context.Context, e *Elogio) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	recipient, ok := m.s.users[e.ToUserID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.s.users[e.FromUserID]; !ok {
		return ErrNotFound
	}
	if e.ID == 0 {
		e.ID = m.s.allocID()
	}
	e.CreatedAt = time.Now().UTC()
	cp := *e
	m.s.elogios[e.ID] = &cp

	// The grant and its audit record commit with the elogio.
	if e.Points > 0 {
		recipient.Points += e.Points
		m.s.txSeq++
		m.s.transactions = append(m.s.transactions, PointTransaction{
			ID:        m.s.txSeq,
			UserID:    recipient.ID,
			ElogioID:  e.ID,
			Amount:    e.Points,
			Reason:    ReasonElogioGrant,
			CreatedAt: e.CreatedAt,
		})
	}
	return nil
}

func (m memElogios) Find(_ context.Context, id int64) (*Elogio, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	e, ok := m.s.elogios[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m memElogios) ListByCompany(_ context.Context, companyID int64, limit int) ([]*Elogio, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Elogio
	for _, e := range m.s.elogios {
		from, okFrom := m.s.users[e.FromUserID]
		to, okTo := m.s.users[e.ToUserID]
		if (okFrom && from.CompanyID == companyID) || (okTo && to.CompanyID == companyID) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memElogios) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.elogios[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.elogios, id)
	return nil
}

// Notifications -------------------------------------------------------------

type memNotifications struct{ s *InMemory }

func (m memNotifications) Create(_ context.Context, n *Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[n.UserID]; !ok {
		return ErrNotFound
	}
	if n.ID == 0 {
		n.ID = m.s.allocID()
	}
	n.CreatedAt = time.Now().UTC()
	cp := *n
	m.s.notifications[n.ID] = &cp
	return nil
}

func (m memNotifications) Find(_ context.Context, id int64) (*Notification, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	n, ok := m.s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m memNotifications) ListByUser(_ context.Context, userID int64) ([]*Notification, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Notification
	for _, n := range m.s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memNotifications) MarkRead(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n, ok := m.s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.Read = true
	return nil
}

// Surveys -------------------------------------------------------------------

type memSurveys struct{ s *InMemory }

func (m memSurveys) Create(_ context.Context, sv *Survey) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if sv.ID == 0 {
		sv.ID = m.s.allocID()
	}
	sv.CreatedAt = time.Now().UTC()
	cp := *sv
	cp.Questions = append([]string(nil), sv.Questions...)
	m.s.surveys[sv.ID] = &cp
	return nil
}

func (m memSurveys) Find(_ context.Context, id int64) (*Survey, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	sv, ok := m.s.surveys[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sv
	cp.Questions = append([]string(nil), sv.Questions...)
	return &cp, nil
}

func (m memSurveys) ListByCompany(_ context.Context, companyID int64) ([]*Survey, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Survey
	for _, sv := range m.s.surveys {
		if sv.CompanyID == companyID {
			cp := *sv
			cp.Questions = append([]string(nil), sv.Questions...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memSurveys) AddResponse(_ context.Context, resp *SurveyResponse) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.surveys[resp.SurveyID]; !ok {
		return ErrNotFound
	}
	resp.ID = m.s.allocID()
	resp.CreatedAt = time.Now().UTC()
	cp := *resp
	cp.Answers = append([]string(nil), resp.Answers...)
	m.s.responses[resp.SurveyID] = append(m.s.responses[resp.SurveyID], &cp)
	return nil
}

func (m memSurveys) Responses(_ context.Context, surveyID int64) ([]*SurveyResponse, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if _, ok := m.s.surveys[surveyID]; !ok {
		return nil, ErrNotFound
	}
	stored := m.s.responses[surveyID]
	out := make([]*SurveyResponse, 0, len(stored))
	for _, r := range stored {
		cp := *r
		cp.Answers = append([]string(nil), r.Answers...)
		out = append(out, &cp)
	}
	return out, nil
}

// Points --------------------------------------------------------------------

type memPoints struct{ s *InMemory }

// idemRef scopes idempotency keys to the acting user so one user's key can
// never replay or collide with another user's redemption.
type idemRef struct {
	userID int64
	key    string
}

func (m memPoints) Redeem(_ context.Context, userID, itemID int64, idemKey string) (PointTransaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if idemKey != "" {
		if tx, ok := m.s.idem[idemRef{userID, idemKey}]; ok {
			return tx, nil
		}
	}

	u, ok := m.s.users[userID]
	if !ok {
		return PointTransaction{}, ErrNotFound
	}
	it, ok := m.s.items[itemID]
	if !ok {
		return PointTransaction{}, ErrNotFound
	}
	if it.Stock <= 0 {
		return PointTransaction{}, ErrItemUnavailable
	}
	if u.Points < it.Price {
		return PointTransaction{}, ErrInsufficientPoints
	}

	// Balance, stock and the audit record mutate under one lock: all or none.
	u.Points -= it.Price
	it.Stock--
	m.s.txSeq++
	tx := PointTransaction{
		ID:             m.s.txSeq,
		UserID:         userID,
		ItemID:         itemID,
		Amount:         -it.Price,
		Reason:         ReasonRedemption,
		IdempotencyKey: idemKey,
		CreatedAt:      time.Now().UTC(),
	}
	m.s.transactions = append(m.s.transactions, tx)
	if idemKey != "" {
		m.s.idem[idemRef{userID, idemKey}] = tx
	}
	return tx, nil
}

func (m memPoints) Balance(_ context.Context, userID int64) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	u, ok := m.s.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return u.Points, nil
}

func (m memPoints) ListByUser(_ context.Context, userID int64, limit int) ([]PointTransaction, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []PointTransaction
	for i := len(m.s.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if m.s.transactions[i].UserID == userID {
			out = append(out, m.s.transactions[i])
		}
	}
	return out, nil
}

// Permissions ---------------------------------------------------------------

type memPermissions struct{ s *InMemory }

func (m memPermissions) Get(_ context.Context, userID int64, key auth.Key) (*auth.PermissionRecord, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	records, ok := m.s.permissions[userID]
	if !ok {
		return nil, nil
	}
	record, ok := records[key]
	if !ok {
		return nil, nil
	}
	cp := record
	return &cp, nil
}

func (m memPermissions) List(_ context.Context, userID int64) ([]auth.PermissionRecord, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	records := m.s.permissions[userID]
	out := make([]auth.PermissionRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m memPermissions) Set(_ context.Context, userID int64, key auth.Key, value bool) (auth.PermissionRecord, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[userID]; !ok {
		return auth.PermissionRecord{}, ErrNotFound
	}
	records, ok := m.s.permissions[userID]
	if !ok {
		records = make(map[auth.Key]auth.PermissionRecord)
		m.s.permissions[userID] = records
	}
	record := auth.PermissionRecord{
		UserID:    userID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	records[key] = record
	return record, nil
}
