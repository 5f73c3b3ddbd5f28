package authpw

import (
	"context"
	"errors"
	"testing"

	"sitewatch/api/internal/clientstore"
)

const adminEmail = "admin@example.gov.ph"

func testService() *Service {
	return NewService(clientstore.NewMemoryNamespace(), adminEmail)
}

func signUpJuan(t *testing.T, svc *Service) Account {
	t.Helper()
	acct, err := svc.SignUp(context.Background(), SignUpRequest{
		Name:     "Juan Dela Cruz",
		Email:    "Juan@Example.com",
		Section:  "Construction",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	return acct
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	svc := testService()

	t.Run("new account is pending", func(t *testing.T) {
		acct := signUpJuan(t, svc)
		if acct.Status != StatusPending {
			t.Errorf("status = %q, want pending", acct.Status)
		}
		if acct.Email != "juan@example.com" {
			t.Errorf("email not normalized: %q", acct.Email)
		}
		if acct.IsAdmin {
			t.Error("ordinary account should not be admin")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpRequest{
			Name: "Someone Else", Email: "juan@example.com", Section: "QA", Password: "secret123",
		})
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("err = %v, want ErrEmailTaken", err)
		}
	})

	t.Run("admin email approved immediately", func(t *testing.T) {
		acct, err := svc.SignUp(ctx, SignUpRequest{
			Name: "The Admin", Email: adminEmail, Section: "Office", Password: "secret123",
		})
		if err != nil {
			t.Fatalf("SignUp admin: %v", err)
		}
		if acct.Status != StatusApproved || !acct.IsAdmin {
			t.Errorf("admin account = %+v", acct)
		}
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpRequest{
			Name: "X", Email: "x@example.com", Section: "QA", Password: "short",
		})
		if err == nil {
			t.Error("expected error for short password")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		if _, err := svc.SignUp(ctx, SignUpRequest{}); err == nil {
			t.Error("expected error for missing fields")
		}
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	svc := testService()
	signUpJuan(t, svc)

	t.Run("pending account rejected", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "juan@example.com", "secret123")
		if !errors.Is(err, ErrPendingApproval) {
			t.Errorf("err = %v, want ErrPendingApproval", err)
		}
	})

	t.Run("approved account signs in", func(t *testing.T) {
		if _, err := svc.SetStatus(ctx, "juan@example.com", StatusApproved); err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
		acct, err := svc.SignIn(ctx, " JUAN@example.com ", "secret123")
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		if acct.Name != "Juan Dela Cruz" {
			t.Errorf("account = %+v", acct)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "juan@example.com", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "ghost@example.com", "secret123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("blocked account rejected", func(t *testing.T) {
		if _, err := svc.SetStatus(ctx, "juan@example.com", StatusBlocked); err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
		_, err := svc.SignIn(ctx, "juan@example.com", "secret123")
		if !errors.Is(err, ErrBlocked) {
			t.Errorf("err = %v, want ErrBlocked", err)
		}
	})
}

func TestPreApprovedLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := testService()

	acct, err := svc.PreApprove(ctx, "Maria Santos", "maria@example.com", "Planning")
	if err != nil {
		t.Fatalf("PreApprove: %v", err)
	}
	if acct.Status != StatusPreapproved {
		t.Errorf("status = %q, want preapproved", acct.Status)
	}

	// No password yet, so no sign-in.
	if _, err := svc.SignIn(ctx, "maria@example.com", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("sign-in before signup = %v, want ErrInvalidCredentials", err)
	}

	// Re-pre-approving is a no-op.
	again, err := svc.PreApprove(ctx, "Different Name", "maria@example.com", "Other")
	if err != nil {
		t.Fatalf("second PreApprove: %v", err)
	}
	if again.Name != "Maria Santos" {
		t.Errorf("re-pre-approve overwrote the account: %+v", again)
	}

	// Signup adopts the password and approves in one step.
	adopted, err := svc.SignUp(ctx, SignUpRequest{
		Name: "Maria Santos", Email: "maria@example.com", Section: "Planning", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("SignUp against pre-approved: %v", err)
	}
	if adopted.Status != StatusApproved {
		t.Errorf("status after adoption = %q, want approved", adopted.Status)
	}
	if _, err := svc.SignIn(ctx, "maria@example.com", "secret123"); err != nil {
		t.Errorf("sign-in after adoption: %v", err)
	}

	// A second signup against the now-claimed account fails.
	_, err = svc.SignUp(ctx, SignUpRequest{
		Name: "Impostor", Email: "maria@example.com", Section: "X", Password: "hijack123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := testService()
	signUpJuan(t, svc)
	_, _ = svc.PreApprove(ctx, "Maria Santos", "maria@example.com", "Planning")

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d accounts, want 2", len(list))
	}

	if err := svc.Delete(ctx, "JUAN@example.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "juan@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
	list, _ = svc.List(ctx)
	if len(list) != 1 || list[0].Email != "maria@example.com" {
		t.Errorf("list after delete = %+v", list)
	}
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	svc := testService()
	signUpJuan(t, svc)
	_, _ = svc.SetStatus(ctx, "juan@example.com", StatusApproved)

	if err := svc.ResetPassword(ctx, "juan@example.com", "newsecret"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.SignIn(ctx, "juan@example.com", "secret123"); err == nil {
		t.Error("old password should no longer work")
	}
	if _, err := svc.SignIn(ctx, "juan@example.com", "newsecret"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	if err := svc.ResetPassword(ctx, "ghost@example.com", "whatever99"); !errors.Is(err, ErrNotFound) {
		t.Errorf("reset for unknown email = %v, want ErrNotFound", err)
	}
	if err := svc.ResetPassword(ctx, "juan@example.com", "short"); err == nil {
		t.Error("short password should be rejected")
	}
}

func TestCorruptAccountBlobReadsEmpty(t *testing.T) {
	ctx := context.Background()
	ns := clientstore.NewMemoryNamespace()
	_ = ns.SetItem(ctx, usersKey, "{not json")
	svc := NewService(ns, adminEmail)

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List over corrupt blob: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("list = %+v, want empty", list)
	}
}
