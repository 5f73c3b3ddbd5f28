// Package app wires the domain services behind the HTTP surface: workbook
// projects and their overrides, POW records, accounts and sessions, the
// client-storage namespace, uploads, search, the audit trail, and PDF export.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"sitewatch/api/internal/audit"
	"sitewatch/api/internal/authpw"
	"sitewatch/api/internal/clientstore"
	"sitewatch/api/internal/config"
	"sitewatch/api/internal/contract"
	"sitewatch/api/internal/export"
	"sitewatch/api/internal/ledger"
	"sitewatch/api/internal/objstore"
	"sitewatch/api/internal/perm"
	"sitewatch/api/internal/pow"
	"sitewatch/api/internal/search"
	"sitewatch/api/internal/session"
	"sitewatch/api/internal/store"
)

// sectionDocs is the required-document catalog per monitoring section. The
// documents summary counts one slot per (project, doc name) pair.
var sectionDocs = map[string][]string{
	"contracts": {
		"Contract Agreement",
		"Notice of Award",
		"Notice to Proceed",
		"Performance Security",
		"Program of Works",
		"Detailed Estimates",
	},
	"planning": {
		"Approved Plans",
		"Scope of Works",
		"Quantity Take-Off",
		"Detailed Unit Price Analysis",
	},
	"construction": {
		"Project Billboard",
		"Statement of Work Accomplished",
		"Monthly Accomplishment Report",
		"Weekly Accomplishment Report",
		"Suspension / Resumption Orders",
	},
	"qa": {
		"Quality Control Program",
		"Materials Test Results",
		"Status of Tests (QCA-05)",
		"Punchlist",
	},
	"contractor": {
		"Contractor's License",
		"Materials Engineer Accreditation",
		"Safety Officer Certificate",
		"Manpower Schedule",
		"Equipment Schedule",
	},
}

var errStorageUnconfigured = domainError(
	http.StatusServiceUnavailable,
	"storage_unconfigured",
	"Wasabi storage is not configured.",
	nil,
)

// Options carries the service dependencies. Objects and Trail may be nil:
// upload endpoints answer 503 without object storage, and history reads as
// empty without an audit repo.
type Options struct {
	Config        config.Config
	Workbook      *store.WorkbookStore
	Sidecar       *store.SidecarStore
	ClientStorage clientstore.Namespace
	Sessions      session.Store
	Accounts      *authpw.Service
	Search        *search.Service
	Trail         *audit.Trail
	Objects       *objstore.Store
	Exporter      *export.Service
}

type Service struct {
	cfg      config.Config
	workbook *store.WorkbookStore
	sidecar  *store.SidecarStore
	ns       clientstore.Namespace
	sessions session.Store
	accounts *authpw.Service
	search   *search.Service
	trail    *audit.Trail
	objects  *objstore.Store
	exporter *export.Service

	// Server-side views of the override families the dashboard clients write
	// through /api/client-storage.
	updates *ledger.Ledger[contract.UpdateOverride]
	marks   *ledger.Ledger[ledger.CompiledMark]
}

func NewService(opts Options) *Service {
	kvBridge := clientstore.NewKV(opts.ClientStorage)
	return &Service{
		cfg:      opts.Config,
		workbook: opts.Workbook,
		sidecar:  opts.Sidecar,
		ns:       opts.ClientStorage,
		sessions: opts.Sessions,
		accounts: opts.Accounts,
		search:   opts.Search,
		trail:    opts.Trail,
		objects:  opts.Objects,
		exporter: opts.Exporter,
		updates:  ledger.New[contract.UpdateOverride](kvBridge, "projectUpdates"),
		marks:    ledger.NewKeyed[ledger.CompiledMark](kvBridge, "compiledDocsByContractDoc"),
	}
}

// ---- auth and sessions ----

// AuthResult is the outcome of a signup or sign-in. Token is empty when the
// account cannot be signed in yet (pending approval).
type AuthResult struct {
	Account authpw.Account
	Token   string
}

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (AuthResult, error) {
	acct, err := s.accounts.SignUp(ctx, req)
	if err != nil {
		if errors.Is(err, authpw.ErrEmailTaken) {
			return AuthResult{}, domainError(http.StatusConflict, "email_taken", err.Error(), nil)
		}
		return AuthResult{}, domainError(http.StatusBadRequest, "invalid_signup", err.Error(), nil)
	}
	result := AuthResult{Account: acct}
	if acct.Status == authpw.StatusApproved {
		token, err := s.startSession(ctx, acct)
		if err != nil {
			return AuthResult{}, err
		}
		result.Token = token
	}
	return result, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	acct, err := s.accounts.SignIn(ctx, email, password)
	if err != nil {
		return AuthResult{}, err
	}
	token, err := s.startSession(ctx, acct)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Account: acct, Token: token}, nil
}

func (s *Service) startSession(ctx context.Context, acct authpw.Account) (string, error) {
	token, err := session.NewToken()
	if err != nil {
		return "", err
	}
	data := session.Data{
		Email:        acct.Email,
		Name:         acct.Name,
		Section:      acct.Section,
		IsAdmin:      acct.IsAdmin,
		IsSuperAdmin: acct.IsAdmin,
	}
	if err := s.sessions.Save(ctx, token, data, s.cfg.SessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, token)
}

func (s *Service) Accounts(ctx context.Context) ([]authpw.Account, error) {
	return s.accounts.List(ctx)
}

func (s *Service) SetAccountStatus(ctx context.Context, email, status string) (authpw.Account, error) {
	acct, err := s.accounts.SetStatus(ctx, email, status)
	if err != nil && !errors.Is(err, authpw.ErrNotFound) {
		return authpw.Account{}, domainError(http.StatusBadRequest, "invalid_status", err.Error(), nil)
	}
	return acct, err
}

func (s *Service) PreApprove(ctx context.Context, name, email, section string) (authpw.Account, error) {
	acct, err := s.accounts.PreApprove(ctx, name, email, section)
	if err != nil {
		return authpw.Account{}, domainError(http.StatusBadRequest, "invalid_preapproval", err.Error(), nil)
	}
	return acct, nil
}

func (s *Service) DeleteAccount(ctx context.Context, email string) error {
	return s.accounts.Delete(ctx, email)
}

func (s *Service) ResetPassword(ctx context.Context, email, password string) error {
	err := s.accounts.ResetPassword(ctx, email, password)
	if err != nil && !errors.Is(err, authpw.ErrNotFound) {
		return domainError(http.StatusBadRequest, "invalid_password", err.Error(), nil)
	}
	return err
}

// ---- projects ----

// ProjectPatch is the JSON body of save-project and update-project. Absent
// fields leave the stored values alone on update.
type ProjectPatch struct {
	ContractID                  *string       `json:"contractId"`
	Description                 *string       `json:"contractDescription"`
	Location                    *string       `json:"location"`
	Category                    *string       `json:"category"`
	Appropriation               *string       `json:"appropriation"`
	ApprovedBudgetCost          *string       `json:"approvedBudgetCost"`
	ContractCost                *string       `json:"contractCost"`
	RevisedContractAmount       *string       `json:"revisedContractAmount"`
	Contractor                  *string       `json:"contractor"`
	StartDate                   *string       `json:"startDate"`
	ExpirationDate              *string       `json:"expirationDate"`
	RevisedExpirationDates      *[]string     `json:"revisedExpirationDates"`
	CompletionDate              *string       `json:"completionDate"`
	Status                      *string       `json:"status"`
	Accomplishment              *percentValue `json:"accomplishment"`
	Remarks                     *string       `json:"remarks"`
	ProjectEngineer             *string       `json:"projectEngineer"`
	MaterialsEngineer           *string       `json:"materialsEngineer"`
	ProjectInspector            *string       `json:"projectInspector"`
	ResidentEngineer            *string       `json:"residentEngineer"`
	QAInCharge                  *string       `json:"qaInCharge"`
	ContractorMaterialsEngineer *string       `json:"contractorMaterialsEngineer"`
}

// percentValue accepts accomplishment as a number or a "45%"-style string,
// the two shapes clients send.
type percentValue int

func (p *percentValue) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*p = percentValue(contract.ParsePercent(strconv.FormatFloat(num, 'f', -1, 64)))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = percentValue(contract.ParsePercent(s))
	return nil
}

func (p ProjectPatch) apply(project *contract.Project) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&project.ContractID, p.ContractID)
	setString(&project.Description, p.Description)
	setString(&project.Location, p.Location)
	setString(&project.Category, p.Category)
	setString(&project.Appropriation, p.Appropriation)
	setString(&project.ApprovedBudgetCost, p.ApprovedBudgetCost)
	setString(&project.ContractCost, p.ContractCost)
	setString(&project.RevisedContractAmount, p.RevisedContractAmount)
	setString(&project.Contractor, p.Contractor)
	setString(&project.StartDate, p.StartDate)
	setString(&project.ExpirationDate, p.ExpirationDate)
	setString(&project.CompletionDate, p.CompletionDate)
	setString(&project.Status, p.Status)
	setString(&project.Remarks, p.Remarks)
	if p.RevisedExpirationDates != nil {
		project.RevisedExpirationDates = append([]string(nil), (*p.RevisedExpirationDates)...)
	}
	if p.Accomplishment != nil {
		project.Accomplishment = int(*p.Accomplishment)
	}
	setString(&project.InCharge.ProjectEngineer, p.ProjectEngineer)
	setString(&project.InCharge.MaterialsEngineer, p.MaterialsEngineer)
	setString(&project.InCharge.ProjectInspector, p.ProjectInspector)
	setString(&project.InCharge.ResidentEngineer, p.ResidentEngineer)
	setString(&project.InCharge.QAInCharge, p.QAInCharge)
	setString(&project.InCharge.ContractorMaterialsEngineer, p.ContractorMaterialsEngineer)
}

func (p ProjectPatch) toProject() contract.Project {
	var project contract.Project
	p.apply(&project)
	return project
}

func permUser(data session.Data) perm.User {
	return perm.User{Name: data.Name, IsAdmin: data.IsAdmin, IsSuperAdmin: data.IsSuperAdmin}
}

// projectPerms loads the base record and computes the caller's permissions
// against the stored in-charge assignments.
func (s *Service) projectPerms(user session.Data, id string) (contract.Project, perm.Permissions, error) {
	project, err := s.workbook.Get(id)
	if err != nil {
		return contract.Project{}, perm.Permissions{}, err
	}
	return project, perm.Compute(permUser(user), project.InCharge), nil
}

// ProjectRows returns the workbook rows keyed by the literal sheet headers,
// the shape the dashboard's project table consumes.
func (s *Service) ProjectRows() ([]map[string]string, error) {
	return s.workbook.ListRows()
}

func (s *Service) SaveProject(ctx context.Context, user session.Data, patch ProjectPatch) (contract.Project, error) {
	if !user.IsAdmin && !user.IsSuperAdmin {
		return contract.Project{}, domainError(http.StatusForbidden, "forbidden", "only admins can add projects", nil)
	}
	project := patch.toProject()
	if contract.NormalizeID(project.ContractID) == "" {
		return contract.Project{}, domainError(http.StatusBadRequest, "missing_contract_id", "contract ID is required", nil)
	}
	if err := s.workbook.Save(project); err != nil {
		return contract.Project{}, err
	}
	s.indexProject(project)
	s.recordAudit(project.ContractID, user, "Add project record")
	return project, nil
}

// UpdateProject applies a direct edit to the base record. The edit replaces
// whatever the override ledger and the POW record said about this contract:
// stale layers over the old row are cleared, not merged.
func (s *Service) UpdateProject(ctx context.Context, user session.Data, id string, patch ProjectPatch) (contract.Project, error) {
	_, perms, err := s.projectPerms(user, id)
	if err != nil {
		return contract.Project{}, err
	}
	if !perms.CanEdit {
		return contract.Project{}, domainError(http.StatusForbidden, "forbidden", "you do not have permission to edit this project", nil)
	}
	patch.ContractID = nil // the path owns the identity
	updated, err := s.workbook.Update(id, patch.apply)
	if err != nil {
		return contract.Project{}, err
	}
	s.updates.Remove(id)
	s.sidecar.DeletePow(id)
	s.indexProject(updated)
	s.recordAudit(updated.ContractID, user, "Edit project record")
	return updated, nil
}

func (s *Service) DeleteProject(ctx context.Context, user session.Data, id string) error {
	_, perms, err := s.projectPerms(user, id)
	if err != nil {
		return err
	}
	if !perms.CanDelete {
		return domainError(http.StatusForbidden, "forbidden", "you do not have permission to delete this project", nil)
	}
	if err := s.workbook.Delete(id); err != nil {
		return err
	}
	s.updates.Remove(id)
	s.sidecar.DeletePow(id)
	s.search.DeleteProject(contract.NormalizeID(id))
	if s.trail != nil {
		actor := actorName(user)
		if _, err := s.trail.RecordRemoval(id, actor, "Delete project record"); err != nil {
			log.Printf("app: audit removal for %s failed: %v", id, err)
		}
	}
	return nil
}

// mergedView layers the update override, if any, over the base record.
func (s *Service) mergedView(project contract.Project) contract.Project {
	if override, ok := s.updates.Get(project.ContractID); ok {
		return ledger.MergeProjectView(project, &override)
	}
	return project
}

func (s *Service) indexProject(project contract.Project) {
	merged := s.mergedView(project)
	s.search.IndexProject(searchRecord(merged))
}

func searchRecord(p contract.Project) search.ProjectRecord {
	return search.ProjectRecord{
		ID:          contract.NormalizeID(p.ContractID),
		Description: p.Description,
		Location:    p.Location,
		Category:    p.Category,
		Contractor:  p.Contractor,
		Status:      p.Status,
	}
}

// ReindexAll rebuilds the search index from the workbook, merged views
// included. Called at startup and harmless to repeat.
func (s *Service) ReindexAll() error {
	projects, err := s.workbook.List()
	if err != nil {
		return err
	}
	records := make([]search.ProjectRecord, 0, len(projects))
	for _, p := range projects {
		records = append(records, searchRecord(s.mergedView(p)))
	}
	s.search.ReindexAll(records)
	return nil
}

func (s *Service) Search(q search.Query) search.Response {
	return s.search.Search(q)
}

// ---- audit ----

type auditSnapshot struct {
	Project contract.Project `json:"project"`
	Pow     pow.Record       `json:"pow"`
}

func actorName(user session.Data) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}

func (s *Service) recordAudit(id string, user session.Data, message string) {
	if s.trail == nil {
		return
	}
	project, err := s.workbook.Get(id)
	if err != nil {
		log.Printf("app: audit snapshot for %s failed: %v", id, err)
		return
	}
	snap := auditSnapshot{Project: s.mergedView(project), Pow: s.sidecar.GetPow(id)}
	if _, err := s.trail.Record(id, snap, actorName(user), message); err != nil {
		log.Printf("app: audit record for %s failed: %v", id, err)
	}
}

func (s *Service) History(id string, limit int) ([]audit.CommitInfo, error) {
	if s.trail == nil {
		return []audit.CommitInfo{}, nil
	}
	return s.trail.History(id, limit)
}

func (s *Service) HistorySnapshot(id, hash string) (json.RawMessage, error) {
	if s.trail == nil {
		return nil, domainError(http.StatusNotFound, "not_found", "no audit trail configured", nil)
	}
	return s.trail.Snapshot(id, hash)
}

// ---- program of works ----

func (s *Service) Pow(id string) pow.Record {
	return s.sidecar.GetPow(id)
}

func (s *Service) SetPow(ctx context.Context, user session.Data, id string, record pow.Record) (pow.Record, error) {
	_, perms, err := s.projectPerms(user, id)
	if err != nil {
		return pow.Record{}, err
	}
	if !perms.CanUpdate {
		return pow.Record{}, domainError(http.StatusForbidden, "forbidden", "you do not have permission to update this project", nil)
	}
	saved, err := s.sidecar.SetPow(id, record)
	if err != nil {
		return pow.Record{}, err
	}
	s.recordAudit(id, user, "Update program of works")
	return saved, nil
}

// ---- engineers directory ----

func (s *Service) Engineers() []store.Engineer {
	return s.sidecar.ListEngineers()
}

func (s *Service) UpsertEngineer(user session.Data, e store.Engineer) ([]store.Engineer, error) {
	list, err := s.sidecar.UpsertEngineer(e)
	if err != nil {
		return nil, domainError(http.StatusBadRequest, "invalid_engineer", err.Error(), nil)
	}
	return list, nil
}

func (s *Service) DeleteEngineer(user session.Data, name, role string) ([]store.Engineer, error) {
	list, removed, err := s.sidecar.DeleteEngineer(name, role)
	if err != nil {
		return nil, domainError(http.StatusBadRequest, "invalid_engineer", err.Error(), nil)
	}
	if !removed {
		return nil, domainError(http.StatusNotFound, "not_found", "engineer not found", nil)
	}
	return list, nil
}

// ---- client-storage namespace ----

func (s *Service) ClientStorageAll(ctx context.Context) (map[string]string, error) {
	return s.ns.GetAll(ctx)
}

func (s *Service) ClientStorageSet(ctx context.Context, key, value string) error {
	if key == "" {
		return domainError(http.StatusBadRequest, "missing_key", "key is required", nil)
	}
	return s.ns.SetItem(ctx, key, value)
}

func (s *Service) ClientStorageDelete(ctx context.Context, key string) error {
	return s.ns.DeleteItem(ctx, key)
}

func (s *Service) ClientStorageClear(ctx context.Context) error {
	return s.ns.Clear(ctx)
}

// ---- documents and gallery ----

// DocumentView pairs an uploaded document with its compiled mark. The two are
// independent: a slot can be compiled without an upload and vice versa.
type DocumentView struct {
	objstore.Document
	Compiled *ledger.CompiledMark `json:"compiled,omitempty"`
}

func (s *Service) UploadDocument(ctx context.Context, user session.Data, contractID, section, docName, fileName, contentType string, r io.Reader, size int64) (objstore.Document, error) {
	if s.objects == nil {
		return objstore.Document{}, errStorageUnconfigured
	}
	if contract.NormalizeID(contractID) == "" || section == "" || docName == "" {
		return objstore.Document{}, domainError(http.StatusBadRequest, "missing_fields", "contractId, section, and docName are required", nil)
	}
	_, perms, err := s.projectPerms(user, contractID)
	if err != nil {
		return objstore.Document{}, err
	}
	if !perms.CanUpdate {
		return objstore.Document{}, domainError(http.StatusForbidden, "forbidden", "you do not have permission to update this project", nil)
	}
	return s.objects.UploadDocument(ctx, contractID, section, docName, fileName, contentType, r, size)
}

func (s *Service) Documents(ctx context.Context, contractID string) ([]DocumentView, error) {
	if s.objects == nil {
		return nil, errStorageUnconfigured
	}
	docs, err := s.objects.ListDocuments(ctx, contractID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentView, 0, len(docs))
	for _, doc := range docs {
		view := DocumentView{Document: doc}
		if mark, ok := s.marks.Get(ledger.CompiledKey(doc.Section, doc.DocName, contractID)); ok {
			view.Compiled = &mark
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *Service) DeleteDocument(ctx context.Context, user session.Data, contractID, section, docName string) error {
	if s.objects == nil {
		return errStorageUnconfigured
	}
	_, perms, err := s.projectPerms(user, contractID)
	if err != nil {
		return err
	}
	if !perms.CanEdit {
		return domainError(http.StatusForbidden, "forbidden", "you do not have permission to edit this project", nil)
	}
	return s.objects.DeleteDocument(ctx, contractID, section, docName)
}

// SetCompiled sets or clears the compiled mark for one document slot. Marks
// need no object storage; they live in the override ledger.
func (s *Service) SetCompiled(ctx context.Context, user session.Data, contractID, section, docName string, compiled bool) (*ledger.CompiledMark, error) {
	if contract.NormalizeID(contractID) == "" || section == "" || docName == "" {
		return nil, domainError(http.StatusBadRequest, "missing_fields", "contractId, section, and docName are required", nil)
	}
	_, perms, err := s.projectPerms(user, contractID)
	if err != nil {
		return nil, err
	}
	if !perms.CanUpdate {
		return nil, domainError(http.StatusForbidden, "forbidden", "you do not have permission to update this project", nil)
	}
	key := ledger.CompiledKey(section, docName, contractID)
	if !compiled {
		s.marks.Remove(key)
		return nil, nil
	}
	mark := ledger.CompiledMark{By: actorName(user), At: time.Now().UTC().Format(time.RFC3339)}
	s.marks.Set(key, mark)
	return &mark, nil
}

// DocumentsSummary is the dashboard's completeness widget: per section, how
// many required document slots exist across all projects and how many have at
// least one upload.
type DocumentsSummary struct {
	Totals      map[string]int `json:"totals"`
	Uploaded    map[string]int `json:"uploaded"`
	TotalAll    int            `json:"totalAll"`
	UploadedAll int            `json:"uploadedAll"`
}

func (s *Service) Summary(ctx context.Context) (DocumentsSummary, error) {
	if s.objects == nil {
		return DocumentsSummary{}, errStorageUnconfigured
	}
	projects, err := s.workbook.List()
	if err != nil {
		return DocumentsSummary{}, err
	}
	slots, err := s.objects.DocumentSlots(ctx)
	if err != nil {
		return DocumentsSummary{}, err
	}
	summary := DocumentsSummary{
		Totals:   make(map[string]int, len(sectionDocs)),
		Uploaded: make(map[string]int, len(sectionDocs)),
	}
	for section, docs := range sectionDocs {
		summary.Totals[section] = len(docs) * len(projects)
		summary.Uploaded[section] = 0
	}
	for _, slot := range slots {
		if _, known := sectionDocs[slot.Section]; known {
			summary.Uploaded[slot.Section]++
		}
	}
	for section := range summary.Totals {
		summary.TotalAll += summary.Totals[section]
		summary.UploadedAll += summary.Uploaded[section]
	}
	return summary, nil
}

func (s *Service) UploadPhoto(ctx context.Context, user session.Data, contractID, fileName, contentType string, r io.Reader, size int64) (objstore.Photo, error) {
	if s.objects == nil {
		return objstore.Photo{}, errStorageUnconfigured
	}
	if contract.NormalizeID(contractID) == "" {
		return objstore.Photo{}, domainError(http.StatusBadRequest, "missing_contract_id", "contract ID is required", nil)
	}
	_, perms, err := s.projectPerms(user, contractID)
	if err != nil {
		return objstore.Photo{}, err
	}
	if !perms.CanUpdate {
		return objstore.Photo{}, domainError(http.StatusForbidden, "forbidden", "you do not have permission to update this project", nil)
	}
	return s.objects.UploadPhoto(ctx, contractID, fileName, contentType, r, size)
}

func (s *Service) Photos(ctx context.Context, contractID string) ([]objstore.Photo, error) {
	if s.objects == nil {
		return nil, errStorageUnconfigured
	}
	return s.objects.ListPhotos(ctx, contractID)
}

func (s *Service) DeleteGallery(ctx context.Context, user session.Data, contractID string) error {
	if s.objects == nil {
		return errStorageUnconfigured
	}
	_, perms, err := s.projectPerms(user, contractID)
	if err != nil {
		return err
	}
	if !perms.CanEdit {
		return domainError(http.StatusForbidden, "forbidden", "you do not have permission to edit this project", nil)
	}
	return s.objects.DeleteGallery(ctx, contractID)
}

// ---- export ----

func (s *Service) Export(ctx context.Context, user session.Data, id string) (*export.Result, error) {
	project, err := s.workbook.Get(id)
	if err != nil {
		return nil, err
	}
	data := export.ReportData{
		Project:    s.mergedView(project),
		Pow:        s.sidecar.GetPow(id),
		PreparedBy: actorName(user),
	}
	return s.exporter.Report(data)
}

// ---- status ----

// StorageStatus reports whether object storage is configured, for the
// dashboard's upload affordances.
type StorageStatus struct {
	WasabiConfigured bool   `json:"wasabiConfigured"`
	Bucket           string `json:"bucket,omitempty"`
	Region           string `json:"region,omitempty"`
	PublicURL        string `json:"publicUrl,omitempty"`
}

func (s *Service) StorageStatus() StorageStatus {
	if s.objects == nil {
		return StorageStatus{}
	}
	return StorageStatus{
		WasabiConfigured: true,
		Bucket:           s.objects.Bucket(),
		Region:           s.objects.Region(),
		PublicURL:        s.objects.PublicURL(),
	}
}
