package newsletter_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/newsletter"
	emailsvc "github.com/gyermekkert/admin/services/email"
	dummydb "github.com/gyermekkert/admin/storage/database/dummy"
)

func setup(t *testing.T) (*newsletter.Service, newsletter.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewNewsletterRepository(db)

	conf := &core.Config{AppName: "Gyermekkert Admin", DefaultFromEmail: "noreply@gyermekkert.test", WorkDir: core.Getwd()}
	return newsletter.NewService(conf, repo, emailsvc.NewConsoleServiceMock(conf), validator.New()), repo
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	n, err := svc.Create(ctx, newsletter.NewNewsletter{
		Title:  "Tavaszi hírlevél",
		Campus: "Kék Ház",
		Components: []newsletter.Component{
			{Type: newsletter.TypeHeading, Text: "Kedves Szülők!", Position: 9},
			{Type: newsletter.TypeTextBlock, Text: "Áprilisi programjaink.", Position: 3},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)

	// positions get renumbered in list order and HTML is derived
	assert.Equal(t, 0, n.Components[0].Position)
	assert.Equal(t, 1, n.Components[1].Position)
	assert.Contains(t, n.HTML, "Kedves Szülők!")

	_, err = svc.Create(ctx, newsletter.NewNewsletter{Campus: "Kék Ház"})
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)
}

func TestService_GetByID_recoversLegacyHTML(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)

	legacy := newsletter.Newsletter{
		Title: "Régi hírlevél",
		HTML:  `<h1 style="color:#222;">Beíratás</h1><p>Részletek hamarosan.</p>`,
	}
	require.NoError(t, repo.CreateNewsletter(ctx, &legacy))

	n, err := svc.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	require.Len(t, n.Components, 2)
	assert.Equal(t, newsletter.TypeHeading, n.Components[0].Type)
	assert.Equal(t, "Beíratás", n.Components[0].Text)
	assert.Equal(t, newsletter.TypeTextBlock, n.Components[1].Type)

	_, err = svc.GetByID(ctx, "nope")
	assert.Equal(t, newsletter.ErrNotFound, err)
}

func TestService_Move(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	n, err := svc.Create(ctx, newsletter.NewNewsletter{
		Title: "Hírlevél",
		Components: []newsletter.Component{
			{Type: newsletter.TypeHeading, Text: "A"},
			{Type: newsletter.TypeTextBlock, Text: "B"},
			{Type: newsletter.TypeDivider},
		},
	})
	require.NoError(t, err)

	moved, err := svc.Move(ctx, n.ID, newsletter.MoveComponent{From: 2, To: 0})
	require.NoError(t, err)
	assert.Equal(t, newsletter.TypeDivider, moved.Components[0].Type)
	assert.Equal(t, "A", moved.Components[1].Text)
	for i, c := range moved.Components {
		assert.Equal(t, i, c.Position)
	}

	_, err = svc.Move(ctx, n.ID, newsletter.MoveComponent{From: 0, To: 5})
	assert.Equal(t, newsletter.ErrBadPosition, err)
}

func TestService_Send(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	n, err := svc.Create(ctx, newsletter.NewNewsletter{
		Title:       "Nyári zárva tartás",
		Description: "Kérjük, olvassák el.",
		Components: []newsletter.Component{
			{Type: newsletter.TypeHeading, Text: "Nyári zárva tartás"},
		},
	})
	require.NoError(t, err)

	err = svc.Send(ctx, n.ID, newsletter.SendRequest{Recipients: []string{"nem-email"}})
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)

	sent := len(emailsvc.SentMessages)
	require.NoError(t, svc.Send(ctx, n.ID, newsletter.SendRequest{Recipients: []string{"szulo@test.hu"}}))
	require.Len(t, emailsvc.SentMessages, sent+1)

	msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	assert.Equal(t, "Nyári zárva tartás", msg.Subject)
	assert.Equal(t, "szulo@test.hu", msg.To[0].Address)
	assert.True(t, strings.Contains(msg.HTMLContent, "Nyári zárva tartás"))
}

func TestService_forms(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	f, err := svc.CreateForm(ctx, newsletter.NewForm{Title: "Jelentkezés", Fields: []byte(`[{"type":"text","label":"Név"}]`)})
	require.NoError(t, err)

	n, err := svc.Create(ctx, newsletter.NewNewsletter{Title: "Hírlevél"})
	require.NoError(t, err)

	require.NoError(t, svc.LinkForm(ctx, n.ID, f.ID))
	// linking twice is a no-op
	require.NoError(t, svc.LinkForm(ctx, n.ID, f.ID))

	got, err := svc.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ID}, got.FormIDs)

	assert.Equal(t, newsletter.ErrFormNotFound, svc.LinkForm(ctx, n.ID, "nope"))
	assert.Equal(t, newsletter.ErrNotFound, svc.LinkForm(ctx, "nope", f.ID))

	f, err = svc.UpdateForm(ctx, f.ID, newsletter.UpdateForm{Title: "Beiratkozás"})
	require.NoError(t, err)
	assert.Equal(t, "Beiratkozás", f.Title)
	assert.JSONEq(t, `[{"type":"text","label":"Név"}]`, string(f.Fields))
	_, err = svc.UpdateForm(ctx, "nope", newsletter.UpdateForm{Title: "x"})
	assert.Equal(t, newsletter.ErrFormNotFound, err)

	require.NoError(t, svc.UnlinkForm(ctx, n.ID, f.ID))
	got, err = svc.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Empty(t, got.FormIDs)

	require.NoError(t, svc.DeleteForm(ctx, f.ID))
	_, err = svc.GetFormByID(ctx, f.ID)
	assert.Equal(t, newsletter.ErrFormNotFound, err)
}
