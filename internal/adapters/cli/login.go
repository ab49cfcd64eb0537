// Package cli — терминальный вход для первичной настройки сессии. Бот умеет
// логиниться и из чата, но на сервере без доступа к Telegram удобнее получить
// строку сессии локально и перенести её переносом файла или вставкой в чат.
package cli

import (
	"context"
	"strings"
	"syscall"

	"telegram-copier/internal/adapters/telegram"
	"telegram-copier/internal/domain/convo"
	"telegram-copier/internal/infra/pr"
	"telegram-copier/internal/infra/telegram/session"

	"github.com/go-faster/errors"
	"golang.org/x/term"
)

// Login проводит интерактивный вход через терминал: телефон, код, при
// необходимости пароль 2FA. Сессия сохраняется менеджером в обычный файл;
// в конце печатается переносимая строка сессии.
func Login(ctx context.Context, mgr *telegram.Manager, store *session.Store) error {
	if err := pr.Init(); err != nil {
		return errors.Wrap(err, "init terminal input")
	}
	// Отмена ctx должна прерывать ожидание ввода, иначе Ctrl+C зависнет на readline.
	go func() {
		<-ctx.Done()
		pr.InterruptReadline()
	}()

	phone, err := readPhone()
	if err != nil {
		return err
	}

	pr.Println("Requesting confirmation code...")
	if err := mgr.BeginLogin(ctx, phone); err != nil {
		return errors.Wrap(err, "begin login")
	}

	code, err := pr.ReadLine("Enter the code from Telegram: ")
	if err != nil {
		return errors.Wrap(err, "read code")
	}

	ident, err := mgr.SubmitCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, telegram.ErrPasswordNeeded) {
		ident, err = askPassword(ctx, mgr)
	}
	if err != nil {
		return errors.Wrap(err, "sign in")
	}

	pr.Printf("Logged in as %s %s (id %d)\n", ident.FirstName, ident.LastName, ident.ID)
	printCredential(store)
	return nil
}

func readPhone() (string, error) {
	raw, err := pr.ReadLine("Enter phone number (+79161234567): ")
	if err != nil {
		return "", errors.Wrap(err, "read phone")
	}
	phone, err := convo.ValidatePhone(raw)
	if err != nil {
		return "", errors.Wrap(err, "validate phone")
	}
	return phone, nil
}

func askPassword(ctx context.Context, mgr *telegram.Manager) (telegram.Identity, error) {
	pr.Print("Enter 2FA password: ")
	// Безэховый ввод; после Enter возвращаем курсор на новую строку.
	passwordBytes, err := term.ReadPassword(syscall.Stdin)
	pr.Println()
	if err != nil {
		return telegram.Identity{}, errors.Wrap(err, "read password")
	}
	return mgr.SubmitPassword(ctx, string(passwordBytes))
}

// printCredential печатает строку сессии из сохранённого файла. Файл хранит
// её уже в переносимом base64-виде.
func printCredential(store *session.Store) {
	credential, ok, err := store.Load()
	if err != nil || !ok {
		pr.ErrPrintln("Session saved, but reading it back failed; use the session file directly.")
		return
	}
	pr.Println("\nPortable session string (paste it into the bot chat on another host):")
	pr.Println(credential)
}
