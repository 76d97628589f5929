package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"wanstay/internal/app"
	"wanstay/internal/domain"
)

type fakeMailer struct {
	sent []domain.Mail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, mail domain.Mail) error {
	m.sent = append(m.sent, mail)
	return m.err
}

type fakeInquiries struct{ saved []domain.Inquiry }

func (s *fakeInquiries) SaveInquiry(ctx context.Context, in domain.Inquiry) error {
	s.saved = append(s.saved, in)
	return nil
}

func validGeneral() domain.GeneralContact {
	return domain.GeneralContact{
		Name:    "山田 太郎",
		Email:   "taro@example.com",
		Subject: "予約について",
		Message: "大型犬2頭で泊まれますか？<script>alert(1)</script>",
	}
}

func TestSubmitGeneral_SendsToFixedRecipient(t *testing.T) {
	m := &fakeMailer{}
	store := &fakeInquiries{}
	svc := app.NewContactService(m, store, "info@wanstay.jp")

	if err := svc.SubmitGeneral(context.Background(), validGeneral()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("want 1 mail, got %d", len(m.sent))
	}
	mail := m.sent[0]
	if mail.To != "info@wanstay.jp" || mail.ReplyTo != "taro@example.com" {
		t.Fatalf("addressing: %+v", mail)
	}
	if !strings.Contains(mail.Subject, "予約について") {
		t.Fatalf("subject %q", mail.Subject)
	}
	if strings.Contains(mail.HTML, "<script>") || !strings.Contains(mail.HTML, "&lt;script&gt;") {
		t.Fatalf("message not escaped: %s", mail.HTML)
	}
	if len(store.saved) != 1 || !store.saved[0].Delivered || store.saved[0].ID == "" {
		t.Fatalf("archive: %+v", store.saved)
	}
	var payload domain.GeneralContact
	if err := json.Unmarshal(store.saved[0].Payload, &payload); err != nil || payload.Email != "taro@example.com" {
		t.Fatalf("payload %s: %v", store.saved[0].Payload, err)
	}
}

func TestSubmitGeneral_RejectsInvalidWithoutMailing(t *testing.T) {
	cases := map[string]func(c *domain.GeneralContact){
		"missing email": func(c *domain.GeneralContact) { c.Email = "" },
		"bad email":     func(c *domain.GeneralContact) { c.Email = "not-an-address" },
		"blank name":    func(c *domain.GeneralContact) { c.Name = "   " },
		"no message":    func(c *domain.GeneralContact) { c.Message = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := &fakeMailer{}
			svc := app.NewContactService(m, nil, "info@wanstay.jp")
			c := validGeneral()
			mutate(&c)
			err := svc.SubmitGeneral(context.Background(), c)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
			if len(m.sent) != 0 {
				t.Fatal("mailer called for invalid form")
			}
		})
	}
}

func TestSubmitBusiness(t *testing.T) {
	m := &fakeMailer{}
	svc := app.NewContactService(m, nil, "biz@wanstay.jp")
	c := domain.BusinessContact{
		Company: "株式会社わん", Name: "佐藤", Email: "sato@example.co.jp", Phone: "03-0000-0000", Message: "掲載希望",
	}
	if err := svc.SubmitBusiness(context.Background(), c); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(m.sent[0].HTML, "株式会社わん") || !strings.Contains(m.sent[0].HTML, "03-0000-0000") {
		t.Fatalf("body: %s", m.sent[0].HTML)
	}

	c.Phone = ""
	if err := svc.SubmitBusiness(context.Background(), c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestSubmit_MailNotConfigured(t *testing.T) {
	svc := app.NewContactService(nil, nil, "info@wanstay.jp")
	if err := svc.SubmitGeneral(context.Background(), validGeneral()); !errors.Is(err, domain.ErrMailNotConfigured) {
		t.Fatalf("want ErrMailNotConfigured, got %v", err)
	}
}

func TestSubmit_ProviderFailureIsArchived(t *testing.T) {
	m := &fakeMailer{err: errors.New("smtp: 421 try later")}
	store := &fakeInquiries{}
	svc := app.NewContactService(m, store, "info@wanstay.jp")

	err := svc.SubmitGeneral(context.Background(), validGeneral())
	if err == nil || errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want provider error, got %v", err)
	}
	if len(store.saved) != 1 || store.saved[0].Delivered || store.saved[0].Error == nil {
		t.Fatalf("archive: %+v", store.saved)
	}
}
