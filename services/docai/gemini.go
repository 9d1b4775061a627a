package docaisvc

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/gyermekkert/admin/core"
)

const requestTimeout = 60 * time.Second

type geminiService struct {
	model  *genai.GenerativeModel
	client *genai.Client
	logger core.Logger
}

var _ core.DocAI = (*geminiService)(nil)

func NewGeminiService(ctx context.Context, conf *core.Config, logger core.Logger) (*geminiService, error) {
	if conf.GeminiAPIKey == "" {
		return nil, errors.New("gemini API key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(conf.GeminiAPIKey))
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	model := client.GenerativeModel(conf.GeminiModel)
	return &geminiService{model: model, client: client, logger: logger}, nil
}

func (svc *geminiService) Close() error { return svc.client.Close() }

func (svc *geminiService) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := svc.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", errors.Wrap(err, "generating content")
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("model returned no result")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("model returned a non-text part")
	}
	return string(text), nil
}

// stripFences removes the ```json fences models like to wrap answers in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func (svc *geminiService) ExtractText(ctx context.Context, contentType string, data []byte) (string, error) {
	return svc.generate(ctx,
		genai.Text("Írd ki a dokumentum teljes szöveges tartalmát, változtatás nélkül. Csak a szöveget add vissza."),
		&genai.Blob{MIMEType: contentType, Data: data},
	)
}

func (svc *geminiService) ExtractInvoice(ctx context.Context, contentType string, data []byte) (*core.ExtractedInvoice, error) {
	out, err := svc.generate(ctx,
		genai.Text("Számlafeldolgozó szakértő vagy. Elemezd a csatolt számlát és töltsd ki az alábbi"+
			" JSON szerkezetet. A válaszod kizárólag JSON legyen, magyarázat nélkül. A munkaszám a"+
			" számlán szereplő projektkód; ha nincs, hagyd üresen.\n"+
			`{"partner": "", "organization": "alapitvany|ovoda", "invoice_type": "", "category": "", "munkaszam": "", "amount": "0", "invoice_date": "éééé-hh-nn", "payment_date": ""}`),
		&genai.Blob{MIMEType: contentType, Data: data},
	)
	if err != nil {
		return nil, err
	}

	var inv core.ExtractedInvoice
	if err = json.Unmarshal([]byte(stripFences(out)), &inv); err != nil {
		return nil, errors.Wrap(err, "decoding invoice result")
	}
	return &inv, nil
}

func (svc *geminiService) ParsePayroll(ctx context.Context, text string) ([]core.ExtractedPayrollLine, error) {
	return svc.parseLines(ctx,
		"Bérszámfejtési dokumentum szövegét kapod. Gyűjtsd ki az átutalásos bérkifizetési sorokat."+
			" A válaszod kizárólag egy JSON tömb legyen az alábbi elemekkel:\n"+
			`[{"employee_name": "", "munkaszam": "", "amount": 0, "date": "éééé-hh-nn", "is_rental": false}]`+
			"\nAz is_rental akkor igaz, ha a sor bérleti díj jellegű kifizetés.\n\nSzöveg:\n"+text)
}

func (svc *geminiService) ParseCashPayroll(ctx context.Context, text string) ([]core.ExtractedPayrollLine, error) {
	return svc.parseLines(ctx,
		"Készpénzes kifizetési lista szövegét kapod. Gyűjtsd ki a készpénzes kifizetési sorokat."+
			" A válaszod kizárólag egy JSON tömb legyen az alábbi elemekkel:\n"+
			`[{"employee_name": "", "munkaszam": "", "amount": 0, "date": "éééé-hh-nn", "is_rental": false}]`+
			"\n\nSzöveg:\n"+text)
}

func (svc *geminiService) parseLines(ctx context.Context, prompt string) ([]core.ExtractedPayrollLine, error) {
	out, err := svc.generate(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}

	var lines []core.ExtractedPayrollLine
	if err = json.Unmarshal([]byte(stripFences(out)), &lines); err != nil {
		return nil, errors.Wrap(err, "decoding payroll lines")
	}
	return lines, nil
}

func (svc *geminiService) ParseTax(ctx context.Context, text string) (float64, error) {
	out, err := svc.generate(ctx, genai.Text(
		"Adóbevallási dokumentum szövegét kapod. Keresd meg a havi fizetendő adó teljes összegét."+
			" A válaszod kizárólag ez a JSON legyen:\n"+`{"amount": 0}`+"\n\nSzöveg:\n"+text))
	if err != nil {
		return 0, err
	}

	var res struct {
		Amount float64 `json:"amount"`
	}
	if err = json.Unmarshal([]byte(stripFences(out)), &res); err != nil {
		return 0, errors.Wrap(err, "decoding tax result")
	}
	return res.Amount, nil
}

func (svc *geminiService) Chat(ctx context.Context, messages []core.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("empty conversation")
	}

	cs := svc.model.StartChat()
	for _, m := range messages[:len(messages)-1] {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := cs.SendMessage(ctx, genai.Text(messages[len(messages)-1].Content))
	if err != nil {
		return "", errors.Wrap(err, "sending chat message")
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("model returned no result")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("model returned a non-text part")
	}
	return string(text), nil
}
