package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cvpratico/cv-builder/internal"
	"github.com/cvpratico/cv-builder/internal/cv"
)

// Client generates the LinkedIn summary and cover letter from CV data using
// an OpenAI-compatible chat completions endpoint. The model is instructed to
// return a single JSON object, enforced with response_format json_object.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg internal.TextGenConfig, logger *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    cfg.APIBaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateDocuments asks the model for both documents in one call.
func (c *Client) GenerateDocuments(ctx context.Context, personal cv.PersonalData, experiences []cv.Experience, skills cv.Skills) (*cv.GeneratedDocuments, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(personal, experiences, skills)},
		},
	}
	req.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("completion API returned error",
			"status", resp.StatusCode,
			"response", string(respBody))
		return nil, fmt.Errorf("completion API error: status %d", resp.StatusCode)
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("unmarshal completion response: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("completion API returned no content")
	}

	var docs cv.GeneratedDocuments
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &docs); err != nil {
		return nil, fmt.Errorf("completion content is not the expected JSON: %w", err)
	}
	if docs.LinkedinSummary == "" || docs.CoverLetter == "" {
		return nil, fmt.Errorf("completion content is missing required keys")
	}

	return &docs, nil
}

// buildPrompt renders the generation instructions. The wizard serves a
// Brazilian audience, so the prompt and the generated documents stay in
// Portuguese.
func buildPrompt(personal cv.PersonalData, experiences []cv.Experience, skills cv.Skills) string {
	var exps strings.Builder
	for _, exp := range experiences {
		end := exp.EndDate
		if end == "" {
			end = "Atual"
		}
		fmt.Fprintf(&exps, "- %s na %s (%s - %s): %s\n", exp.Position, exp.Company, exp.StartDate, end, exp.Description)
	}

	allSkills := append(append([]string{}, skills.Technical...), skills.Soft...)

	return fmt.Sprintf(`Com base nos seguintes dados de um currículo, gere um "resumo para LinkedIn" e uma "carta de apresentação".

DADOS:
- Nome: %s
- Email: %s
- Telefone: %s
- Resumo Pessoal: %s
- Experiências:
%s- Habilidades: %s

REGRAS DE GERAÇÃO:
1. **Resumo para LinkedIn**: Deve ser um parágrafo conciso (2-4 frases) e profissional, destacando as principais qualificações e experiências. Use a primeira pessoa.
2. **Carta de Apresentação**: Deve ser formal, endereçada a "Prezado(a) Recrutador(a),". Deve ter 3 parágrafos: introdução, um parágrafo destacando como as experiências e habilidades se conectam a uma vaga em potencial, e uma conclusão com uma chamada para ação (ex: "ansioso(a) para discutir...").
3. **Formato da Resposta**: A resposta DEVE ser um objeto JSON válido, com exatamente duas chaves: "linkedinSummary" e "coverLetter". O conteúdo de cada chave deve ser uma string de texto puro. Não inclua markdown ou qualquer outra formatação.

Exemplo de formato de resposta:
{
  "linkedinSummary": "Profissional com X anos de experiência em...",
  "coverLetter": "Prezado(a) Recrutador(a),..."
}`,
		personal.Name, personal.Email, personal.Phone, personal.Summary, exps.String(), strings.Join(allSkills, ", "))
}
