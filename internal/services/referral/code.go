package referral

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// fallbackSlots число кодов вида SB0000..SB9999.
const fallbackSlots = 10000

// CodeSource генерирует случайный код длины n.
type CodeSource func(n int) string

// RandomCode случайный код из A-Z0-9 на crypto/rand.
func RandomCode(n int) string {
	var b strings.Builder
	b.Grow(n)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			idx = big.NewInt(int64(i % len(codeAlphabet)))
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String()
}

// GenerateUniqueCode подбирает свободный код. После исчерпания попыток
// переходит на код от текущего времени. Никогда не возвращает ошибку:
// сбои проверки занятости логируются.
func (s *Service) GenerateUniqueCode(ctx context.Context) string {
	const op = "services.referral.GenerateUniqueCode"
	log := s.log.With(slog.String("op", op))

	for attempt := 0; attempt < s.cfg.CodeAttempts; attempt++ {
		code := s.source(s.cfg.CodeLength)
		taken, err := s.repo.ReferralCodeExists(ctx, code)
		if err != nil {
			log.Warn("failed to check referral code", sl.Err(err))
			continue
		}
		if !taken {
			return code
		}
	}

	log.Warn("random referral codes exhausted, using time based code")
	return s.fallbackCode(ctx)
}

// fallbackCode код вида SB1234 от текущего времени. Если слот занят,
// проверяются следующие; когда заняты все, берется nanoCode.
func (s *Service) fallbackCode(ctx context.Context) string {
	start := int(s.now().Unix() % fallbackSlots)
	for i := 0; i < fallbackSlots; i++ {
		code := fmt.Sprintf("SB%04d", (start+i)%fallbackSlots)
		taken, err := s.repo.ReferralCodeExists(ctx, code)
		if err != nil || ctx.Err() != nil {
			break
		}
		if !taken {
			return code
		}
	}
	return s.nanoCode(ctx)
}

// nanoCode код от наносекунд текущего времени. Он длиннее обычного и
// проверяется в хранилище; при ошибке проверки возвращается как есть.
func (s *Service) nanoCode(ctx context.Context) string {
	base := s.now().UnixNano()
	var code string
	for i := int64(0); i < 3; i++ {
		code = "SB" + strings.ToUpper(strconv.FormatInt(base+i, 36))
		taken, err := s.repo.ReferralCodeExists(ctx, code)
		if err != nil || !taken {
			return code
		}
	}
	return code
}
