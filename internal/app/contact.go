package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wanstay/internal/domain"
)

var mailTemplates = template.Must(template.New("general").Parse(`<h2>お問い合わせがありました</h2>
<table>
<tr><th>お名前</th><td>{{.Name}}</td></tr>
<tr><th>メールアドレス</th><td>{{.Email}}</td></tr>
<tr><th>件名</th><td>{{.Subject}}</td></tr>
</table>
<h3>お問い合わせ内容</h3>
<p style="white-space: pre-wrap">{{.Message}}</p>
`))

func init() {
	template.Must(mailTemplates.New("business").Parse(`<h2>掲載・法人のお問い合わせがありました</h2>
<table>
<tr><th>会社名</th><td>{{.Company}}</td></tr>
<tr><th>ご担当者名</th><td>{{.Name}}</td></tr>
<tr><th>メールアドレス</th><td>{{.Email}}</td></tr>
<tr><th>電話番号</th><td>{{.Phone}}</td></tr>
</table>
<h3>お問い合わせ内容</h3>
<p style="white-space: pre-wrap">{{.Message}}</p>
`))
}

// ContactService validates contact forms, forwards them by mail to a fixed
// recipient and archives them when a store is configured.
type ContactService struct {
	mailer   domain.Mailer       // nil when mail is not configured
	store    domain.InquiryStore // optional
	to       string
	validate *validator.Validate
	now      func() time.Time
}

func NewContactService(m domain.Mailer, store domain.InquiryStore, to string) *ContactService {
	return &ContactService{
		mailer:   m,
		store:    store,
		to:       to,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

func (s *ContactService) SubmitGeneral(ctx context.Context, c domain.GeneralContact) error {
	trimStrings(&c)
	return s.submit(ctx, domain.ContactGeneral, c.Email, "【WanStay】"+c.Subject, c)
}

func (s *ContactService) SubmitBusiness(ctx context.Context, c domain.BusinessContact) error {
	trimStrings(&c)
	return s.submit(ctx, domain.ContactBusiness, c.Email, "【WanStay 法人】"+c.Company+" "+c.Name+"様", c)
}

func (s *ContactService) submit(ctx context.Context, kind domain.ContactKind, replyTo, subject string, form any) error {
	if err := s.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fe.Field() + ":" + fe.Tag()
			}
			log.Debug().Strs("fields", fields).Str("kind", string(kind)).Msg("contact form rejected")
		}
		return fmt.Errorf("%s contact: %w", kind, domain.ErrValidation)
	}
	if s.mailer == nil {
		return fmt.Errorf("%s contact: %w", kind, domain.ErrMailNotConfigured)
	}

	var body bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&body, string(kind), form); err != nil {
		return fmt.Errorf("render %s mail: %w", kind, err)
	}

	sendErr := s.mailer.Send(ctx, domain.Mail{To: s.to, ReplyTo: replyTo, Subject: subject, HTML: body.String()})
	s.archive(ctx, kind, replyTo, form, sendErr)
	if sendErr != nil {
		return fmt.Errorf("send %s mail: %w", kind, sendErr)
	}
	return nil
}

// archive records the submission and its delivery result; failures are only logged.
func (s *ContactService) archive(ctx context.Context, kind domain.ContactKind, email string, form any, sendErr error) {
	if s.store == nil {
		return
	}
	payload, err := json.Marshal(form)
	if err != nil {
		log.Warn().Err(err).Msg("inquiry payload")
		return
	}
	in := domain.Inquiry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Email:     email,
		Payload:   payload,
		Delivered: sendErr == nil,
		CreatedAt: s.now().UTC(),
	}
	if sendErr != nil {
		msg := sendErr.Error()
		in.Error = &msg
	}
	if err := s.store.SaveInquiry(ctx, in); err != nil {
		log.Warn().Err(err).Str("inquiry", in.ID).Msg("inquiry archive failed")
	}
}

// trimStrings trims every string field of the struct p points to.
func trimStrings(p any) {
	v := reflect.ValueOf(p).Elem()
	for i := 0; i < v.NumField(); i++ {
		if f := v.Field(i); f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}
