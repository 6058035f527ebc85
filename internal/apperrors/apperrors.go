package apperrors

import "errors"

// Подсказки клиенту: что делать после ошибки OTP-потока.
const (
	ActionRetryOTP    = "RETRY_OTP"
	ActionRetrySignup = "RETRY_SIGNUP"
)

var (
	ErrValidation          = errors.New("некорректные данные запроса")
	ErrNotFound            = errors.New("запись не найдена")
	ErrDuplicateUser       = errors.New("пользователь с таким email или телефоном уже зарегистрирован")
	ErrSignatureMismatch   = errors.New("неверная подпись платежа")
	ErrPaymentNotConfirmed = errors.New("платёж не подтверждён шлюзом")
	ErrDuplicatePayment    = errors.New("платёж уже учтён в истории подписок")
	ErrCodeMismatch        = errors.New("неверный код подтверждения")
	ErrCodeExpired         = errors.New("срок действия кода истёк")
	ErrNoPendingSignup     = errors.New("нет ожидающей подтверждения регистрации")
	ErrDelivery            = errors.New("не удалось отправить код подтверждения")
	ErrUpstream            = errors.New("ошибка внешнего сервиса")
)

// Action возвращает машинную подсказку для ошибок OTP-потока:
// повторить ввод кода или начать регистрацию заново.
func Action(err error) string {
	switch {
	case errors.Is(err, ErrCodeMismatch):
		return ActionRetryOTP
	case errors.Is(err, ErrCodeExpired), errors.Is(err, ErrNoPendingSignup), errors.Is(err, ErrDelivery):
		return ActionRetrySignup
	default:
		return ""
	}
}
