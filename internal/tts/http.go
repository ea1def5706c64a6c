package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Генерация длинного текста на CPU может занимать минуты
const httpSynthesisTimeout = 120 * time.Second

// StatusError - ответ TTS сервера с кодом, отличным от 200
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("статус %d: %s", e.Code, tail(e.Body, 300))
}

// apiClient - общий клиент для локальных TTS серверов (Piper, AllTalk)
type apiClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func newAPIClient(baseURL string, logger *zap.Logger) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: httpSynthesisTimeout},
		logger:  logger,
	}
}

// validate проверяет, что адрес сервера абсолютный
func (c *apiClient) validate() error {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("некорректный адрес TTS сервера: %q", c.baseURL)
	}
	return nil
}

// resolve превращает путь на сервере в абсолютный адрес
func (c *apiClient) resolve(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.baseURL + "/" + strings.TrimLeft(ref, "/")
}

// get выполняет GET запрос. Тело возвращается и вместе со StatusError.
func (c *apiClient) get(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(ref), nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	return c.do(req)
}

// post отправляет тело с указанным Content-Type
func (c *apiClient) post(ctx context.Context, ref, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(ref), body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

func (c *apiClient) do(req *http.Request) ([]byte, error) {
	c.logger.Debug("🎵 запрос к TTS серверу",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return data, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
