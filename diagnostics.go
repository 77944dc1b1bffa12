package adminauth

import (
	"context"

	"github.com/goliatone/go-print"
)

// AdminStatusReport is the structured outcome of InspectAdminStatus. Every
// failure mode is folded into the report; the method never returns a Go
// error so callers need no error handling.
type AdminStatusReport struct {
	Success       bool              `json:"success"`
	Authenticated bool              `json:"authenticated"`
	IsAdmin       bool              `json:"is_admin"`
	Status        AdminStatus       `json:"status"`
	Profile       *Profile          `json:"profile,omitempty"`
	Session       *Session          `json:"session,omitempty"`
	Verification  *RoleVerification `json:"verification,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// RepairReport is the structured outcome of RepairAdminRole.
type RepairReport struct {
	Success bool     `json:"success"`
	Profile *Profile `json:"profile,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Diagnostics inspects and repairs the admin role state. It is meant for
// operator-triggered invocation (debug console, support tooling), never for
// automatic background execution.
type Diagnostics struct {
	lifecycle *Lifecycle
	profiles  ProfileReader
	verifier  RoleVerifier
	writer    ProfileWriter // nil when no elevated handle is configured

	logger          Logger
	activitySink    ActivitySink
	operatorKeyHash string // optional bcrypt gate in front of RepairAdminRole
	debug           bool
}

// DiagnosticsOption customizes Diagnostics construction.
type DiagnosticsOption func(*Diagnostics)

// WithDiagnosticsLogger overrides the default logger.
func WithDiagnosticsLogger(logger Logger) DiagnosticsOption {
	return func(d *Diagnostics) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDiagnosticsActivitySink sets the sink receiving repair events.
func WithDiagnosticsActivitySink(sink ActivitySink) DiagnosticsOption {
	return func(d *Diagnostics) {
		d.activitySink = normalizeActivitySink(sink)
	}
}

// WithProfileWriter wires the elevated write handle used by RepairAdminRole.
// Leaving it unset makes every repair report PrivilegeRepairUnavailable.
func WithProfileWriter(writer ProfileWriter) DiagnosticsOption {
	return func(d *Diagnostics) {
		d.writer = writer
	}
}

// WithOperatorKeyHash gates RepairAdminRole behind a bcrypt hash of an
// operator key. An empty hash keeps the repair ungated.
func WithOperatorKeyHash(hash string) DiagnosticsOption {
	return func(d *Diagnostics) {
		d.operatorKeyHash = hash
	}
}

// WithDiagnosticsDebug enables pretty-printed report dumps on inspection.
func WithDiagnosticsDebug(debug bool) DiagnosticsOption {
	return func(d *Diagnostics) {
		d.debug = debug
	}
}

// NewDiagnostics builds the diagnostic utilities around a lifecycle and the
// read/verify handles.
func NewDiagnostics(lifecycle *Lifecycle, profiles ProfileReader, verifier RoleVerifier, opts ...DiagnosticsOption) *Diagnostics {
	d := &Diagnostics{
		lifecycle:    lifecycle,
		profiles:     profiles,
		verifier:     verifier,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

// InspectAdminStatus fetches the current session and cross-checks the two
// independent admin answers: the profile role and the server-side
// verification RPC. Divergence is reported as inconsistent, never resolved
// automatically. An absent session reports "not authenticated" and is not a
// failure.
func (d *Diagnostics) InspectAdminStatus(ctx context.Context) AdminStatusReport {
	snap := d.lifecycle.Snapshot()
	if snap.Session == nil {
		return AdminStatusReport{
			Success: true,
			Status:  AdminIndeterminate,
		}
	}

	report := AdminStatusReport{
		Success:       true,
		Authenticated: true,
		Session:       snap.Session,
	}

	profile, profileErr := d.profiles.FetchProfile(ctx, snap.Session)
	if profileErr != nil {
		d.logger.Warn("inspect: profile fetch failed, falling back to server verification: %v", profileErr)
		report.Error = profileErr.Error()
	} else {
		report.Profile = profile
	}

	var verification *RoleVerification
	if d.verifier != nil {
		v, err := d.verifier.VerifyAdminAccess(ctx, snap.Session)
		if err != nil {
			d.logger.Warn("inspect: server verification failed: %v", err)
			if report.Error == "" {
				report.Error = err.Error()
			}
		} else {
			verification = v
			report.Verification = v
		}
	}

	report.Status = ReconcileAdminStatus(profile, profileErr, verification)
	report.IsAdmin = report.Status.Granted()

	if report.Status == AdminInconsistent {
		if report.Error == "" {
			report.Error = ErrRoleInconsistency.Error()
		}
		d.logger.Error("inconsistency for user %s: profile role %q vs verified admin %t",
			snap.Session.UserID, profile.Role, verification.IsAdmin)
		d.emit(ctx, ActivityEventRoleInconsistency, snap.Session.UserID, map[string]any{
			"profile_role":   profile.Role,
			"verified_admin": verification.IsAdmin,
			"role_value":     verification.RoleValue,
		})
	}

	if d.debug {
		d.logger.Debug("admin status report: %s", print.MaybePrettyJSON(report))
	}

	return report
}

// RepairAdminRole unconditionally sets the current user's profile role to
// admin, creating the row when missing. It requires an active session and
// the elevated write handle; both absences are reported, not thrown.
// Strictly for trusted operator contexts.
func (d *Diagnostics) RepairAdminRole(ctx context.Context, operatorKey string) RepairReport {
	snap := d.lifecycle.Snapshot()
	if snap.Session == nil {
		return RepairReport{Error: ErrNoSession.Error()}
	}

	if d.operatorKeyHash != "" {
		if err := ComparePasswordAndHash(operatorKey, d.operatorKeyHash); err != nil {
			d.logger.Warn("repair rejected for user %s: operator key mismatch", snap.Session.UserID)
			d.emit(ctx, ActivityEventPrivilegeRepairDenied, snap.Session.UserID, map[string]any{
				"reason": "operator key rejected",
			})
			return RepairReport{Error: ErrOperatorKeyRejected.Error()}
		}
	}

	if d.writer == nil {
		d.logger.Warn("repair unavailable: no elevated handle configured")
		d.emit(ctx, ActivityEventPrivilegeRepairDenied, snap.Session.UserID, map[string]any{
			"reason": "elevated handle missing",
		})
		return RepairReport{Error: ErrPrivilegeRepairUnavailable.Error()}
	}

	profile, err := d.writer.UpsertRole(ctx, snap.Session.UserID, snap.Session.Email, RoleAdmin)
	if err != nil {
		d.logger.Error("repair failed for user %s: %v", snap.Session.UserID, err)
		return RepairReport{Error: err.Error()}
	}

	d.emit(ctx, ActivityEventRoleRepair, snap.Session.UserID, map[string]any{
		"role": string(RoleAdmin),
	})

	// Re-derive so the lifecycle's cached admin status reflects the write.
	d.lifecycle.mu.Lock()
	if d.lifecycle.session != nil && d.lifecycle.session.UserID == snap.Session.UserID {
		d.lifecycle.profile = profile
		d.lifecycle.adminStatus = ReconcileAdminStatus(profile, nil, nil)
	}
	d.lifecycle.mu.Unlock()

	return RepairReport{Success: true, Profile: profile}
}

func (d *Diagnostics) emit(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(d.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: userID, Type: "operator"},
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: d.lifecycle.now(),
	}
	if err := sink.Record(ctx, event); err != nil {
		d.logger.Warn("activity sink record error: %v", err)
	}
}
