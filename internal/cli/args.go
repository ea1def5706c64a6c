package cli

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUsage - неверные аргументы командной строки
var ErrUsage = errors.New("неверное использование")

// Request - один запрос на синтез, собранный из аргументов
type Request struct {
	Text       string
	OutputPath string
}

// Usage возвращает однострочную подсказку по использованию
func Usage(program string) string {
	return fmt.Sprintf("Usage: %s <text> <output_wav>", program)
}

// ParseArgs разбирает командную строку (без имени программы). Последние два аргумента -
// <text> и <output_wav>, все перед ними - опции. Текст может начинаться с "-".
func ParseArgs(args []string) (Request, []string, error) {
	if len(args) < 2 {
		return Request{}, nil, ErrUsage
	}

	n := len(args)
	req := Request{
		Text:       args[n-2],
		OutputPath: args[n-1],
	}

	if strings.TrimSpace(req.Text) == "" {
		return Request{}, nil, fmt.Errorf("%w: текст для синтеза пуст", ErrUsage)
	}
	if req.OutputPath == "" {
		return Request{}, nil, fmt.Errorf("%w: не указан путь к выходному файлу", ErrUsage)
	}

	return req, args[:n-2], nil
}
