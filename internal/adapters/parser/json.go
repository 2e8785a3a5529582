package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-faster/jx"

	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/ports"
)

var (
	// ErrInvalidJSON возвращается, если вход не является корректным JSON.
	ErrInvalidJSON = errors.New("input is not valid json")
	// ErrNotConversationArray возвращается, если корректный JSON не является массивом.
	ErrNotConversationArray = errors.New("input is not a json array of conversations")
)

// ExportParser реализует интерфейс Parser для структурированного экспорта
// (массив разговоров с деревом узлов в поле mapping).
// Порядок узлов сохраняется таким, каким он был в исходном документе.
type ExportParser struct{}

// NewExportParser создает новый экземпляр ExportParser.
func NewExportParser() ports.Parser {
	return &ExportParser{}
}

// Parse разбирает срез байт с JSON в список разговоров.
func (p *ExportParser) Parse(data []byte) ([]domain.ExportConversation, error) {
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, ErrNotConversationArray
	}

	conversations := []domain.ExportConversation{}
	err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() != jx.Object {
			// Элементы, не являющиеся объектами, не содержат mapping и пропускаются.
			return d.Skip()
		}
		conv, err := decodeConversation(d)
		if err != nil {
			return err
		}
		conversations = append(conversations, conv)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}

	return conversations, nil
}

func decodeConversation(d *jx.Decoder) (domain.ExportConversation, error) {
	var conv domain.ExportConversation
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "title":
			title, err := decodeString(d)
			conv.Title = title
			return err
		case "mapping":
			nodes, err := decodeMapping(d)
			conv.Nodes = nodes
			return err
		default:
			return d.Skip()
		}
	})
	return conv, err
}

// decodeMapping читает объект mapping, сохраняя порядок ключей.
func decodeMapping(d *jx.Decoder) ([]domain.ExportNode, error) {
	if d.Next() != jx.Object {
		return nil, d.Skip()
	}

	var nodes []domain.ExportNode
	err := d.Obj(func(d *jx.Decoder, key string) error {
		node := domain.ExportNode{ID: key}
		if d.Next() != jx.Object {
			nodes = append(nodes, node)
			return d.Skip()
		}
		err := d.Obj(func(d *jx.Decoder, field string) error {
			if field != "message" || d.Next() != jx.Object {
				return d.Skip()
			}
			msg, err := decodeMessage(d)
			node.Message = msg
			return err
		})
		if err != nil {
			return err
		}
		nodes = append(nodes, node)
		return nil
	})
	return nodes, err
}

func decodeMessage(d *jx.Decoder) (*domain.ExportMessage, error) {
	msg := &domain.ExportMessage{}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "author":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, field string) error {
				if field != "role" {
					return d.Skip()
				}
				role, err := decodeString(d)
				msg.AuthorRole = role
				return err
			})
		case "content":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, field string) error {
				if field != "parts" {
					return d.Skip()
				}
				parts, err := decodeParts(d)
				msg.Parts = parts
				return err
			})
		case "create_time":
			if d.Next() != jx.Number {
				return d.Skip()
			}
			num, err := d.Num()
			if err != nil {
				return err
			}
			// Значение вне диапазона float64 считается отсутствующим.
			ts, err := strconv.ParseFloat(num.String(), 64)
			if err != nil {
				msg.CreateTime = nil
				return nil
			}
			msg.CreateTime = &ts
			return nil
		default:
			return d.Skip()
		}
	})
	return msg, err
}

// decodeParts читает массив частей содержимого. Нестроковые части
// (вложения, изображения) не несут видимого текста и пропускаются.
func decodeParts(d *jx.Decoder) ([]string, error) {
	if d.Next() != jx.Array {
		return nil, d.Skip()
	}
	parts := []string{}
	err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() != jx.String {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		parts = append(parts, s)
		return nil
	})
	return parts, err
}

func decodeString(d *jx.Decoder) (string, error) {
	if d.Next() != jx.String {
		return "", d.Skip()
	}
	return d.Str()
}
