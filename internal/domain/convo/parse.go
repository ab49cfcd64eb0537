package convo

// Разбор пользовательского ввода: идентификаторы сообщений (число или ссылка
// t.me), диапазоны вида "start-end" и номера телефонов. Всё принимается в том
// виде, как администраторы обычно вставляют из клиента Telegram.

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

var (
	// Ссылка на сообщение: t.me/c/<внутренний id>/<msg id> для приватных
	// каналов либо t.me/<username>/<msg id> для публичных. Хвост запроса
	// (?single и т.п.) игнорируется.
	messageLinkRe = regexp.MustCompile(`^(?:https?://)?(?:www\.)?t\.me/(?:c/\d+|[A-Za-z][A-Za-z0-9_]{2,})/(\d+)(?:\?\S*)?$`)

	// Диапазон "start-end" с произвольными пробелами вокруг дефиса.
	rangeRe = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)

	// Телефон: необязательный '+', затем только цифры.
	phoneDigitsRe = regexp.MustCompile(`^\+?\d+$`)
)

// ParseMessageID извлекает ID сообщения из текста: либо положительное число,
// либо ссылка на сообщение t.me. Всё остальное — ошибка.
func ParseMessageID(text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, errors.New("empty message id")
	}

	if m := messageLinkRe.FindStringSubmatch(trimmed); m != nil {
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 {
			return 0, errors.Errorf("message link %q has invalid id", trimmed)
		}
		return id, nil
	}

	id, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, errors.Errorf("%q is neither a message id nor a t.me link", trimmed)
	}
	if id <= 0 {
		return 0, errors.Errorf("message id must be positive, got %d", id)
	}
	return id, nil
}

// ParseRange разбирает ввод вида "100-250". Перепутанные границы
// нормализуются: "250-100" эквивалентно "100-250". Второй результат —
// признак того, что текст вообще похож на диапазон.
func ParseRange(text string) (start, end int, ok bool) {
	m := rangeRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, 0, false
	}
	start, err1 := strconv.Atoi(m[1])
	end, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || start <= 0 || end <= 0 {
		return 0, 0, false
	}
	if start > end {
		start, end = end, start
	}
	return start, end, true
}

// ValidatePhone проверяет номер телефона в международном формате.
// Пробелы, дефисы и скобки из ввода удаляются; после очистки допускается
// необязательный '+' и от 10 до 15 цифр.
func ValidatePhone(text string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(text))

	if cleaned == "" {
		return "", errors.New("empty phone number")
	}
	if !phoneDigitsRe.MatchString(cleaned) {
		return "", errors.Errorf("phone %q contains invalid characters", text)
	}

	digits := strings.TrimPrefix(cleaned, "+")
	if len(digits) < 10 || len(digits) > 15 {
		return "", errors.Errorf("phone %q must have 10-15 digits", text)
	}
	return cleaned, nil
}
