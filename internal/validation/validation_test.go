package validation

import (
    "errors"
    "strings"
    "testing"

    "github.com/iliyamo/mutual-help-web/internal/model"
)

func validRegistration() model.RegisterForm {
    return model.RegisterForm{
        Firstname:       "Ana",
        Lastname:        "K",
        Email:           "ana@example.com",
        Password:        "Abcdef1!",
        ConfirmPassword: "Abcdef1!",
        IAcceptTC:       "true",
    }
}

func TestRegisterAccepted(t *testing.T) {
    f := validRegistration()
    if err := New().Validate(&f); err != nil {
        t.Fatalf("valid registration rejected: %v", err)
    }
}

func TestRegisterRejected(t *testing.T) {
    cases := map[string]struct {
        mutate func(*model.RegisterForm)
        field  string
        rule   string
    }{
        "mismatch":   {func(f *model.RegisterForm) { f.ConfirmPassword = "Abcdef1?" }, "confirmPassword", "eqfield"},
        "no terms":   {func(f *model.RegisterForm) { f.IAcceptTC = "" }, "iAcceptTC", "required"},
        "weak":       {func(f *model.RegisterForm) { f.Password = "abcdefgh"; f.ConfirmPassword = "abcdefgh" }, "password", "strongpassword"},
        "short":      {func(f *model.RegisterForm) { f.Password = "Ab1!"; f.ConfirmPassword = "Ab1!" }, "password", "min"},
        "name chars": {func(f *model.RegisterForm) { f.Firstname = "Ana-Maria" }, "firstname", "alphanum"},
    }
    v := New()
    for name, tc := range cases {
        t.Run(name, func(t *testing.T) {
            f := validRegistration()
            tc.mutate(&f)
            err := v.Validate(&f)
            var ve *Error
            if !errors.As(err, &ve) {
                t.Fatalf("expected *Error, got %v", err)
            }
            if ve.Field != tc.field || ve.Rule != tc.rule {
                t.Fatalf("got %s/%s, want %s/%s", ve.Field, ve.Rule, tc.field, tc.rule)
            }
            if Message(err) == "" {
                t.Fatal("empty message")
            }
        })
    }
}

func TestStrongPassword(t *testing.T) {
    for pw, want := range map[string]bool{
        "Abcdef1!":  true,
        "Abcdefg1":  false,
        "abcdef1!":  false,
        "ABCDEF1!":  false,
        "Abcdefg!":  false,
        "Ab1!":      false,
        "Pässwört9$": true,
    } {
        if got := StrongPassword(pw); got != want {
            t.Errorf("StrongPassword(%q) = %v, want %v", pw, got, want)
        }
    }
}

func TestCreateAdText(t *testing.T) {
    v := New()
    f := model.CreateAdForm{
        Note:         "Cours de piano, le samedi !",
        City:         "Saint-Étienne",
        DepartmentID: "6f1c2a7e-3a8b-4c55-9a51-0f9e1f5d2c11",
    }
    if err := v.Validate(&f); err != nil {
        t.Fatalf("valid ad rejected: %v", err)
    }
    f.Note = "<script>"
    if err := v.Validate(&f); err == nil {
        t.Fatal("markup accepted in note")
    }
    f.Note = strings.Repeat("a", 101)
    if err := v.Validate(&f); err == nil {
        t.Fatal("note over 100 characters accepted")
    }
    f.Note = ""
    f.DepartmentID = ""
    var ve *Error
    if err := v.Validate(&f); !errors.As(err, &ve) || ve.Field != "departmentID" {
        t.Fatalf("missing department not reported: %v", err)
    }
}

func TestImage(t *testing.T) {
    if err := Image(nil); !errors.Is(err, ErrImageEmpty) {
        t.Fatalf("empty: %v", err)
    }
    if err := Image(make([]byte, MaxImageBytes+1)); !errors.Is(err, ErrImageTooLarge) {
        t.Fatalf("too large: %v", err)
    }
    for _, n := range []int{1, MaxImageBytes} {
        if err := Image(make([]byte, n)); err != nil {
            t.Fatalf("size %d rejected: %v", n, err)
        }
    }
}
