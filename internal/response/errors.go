package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrAttemptLimitReached   ErrCode = "ATTEMPT_LIMIT_REACHED"
	ErrInsufficientQuestions ErrCode = "INSUFFICIENT_QUESTIONS"
	ErrNoActiveAttempt       ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrAttemptClosed         ErrCode = "ATTEMPT_CLOSED"
	ErrInvalidOption         ErrCode = "INVALID_OPTION"
	ErrScoringFailed         ErrCode = "SCORING_FAILED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Matrícula o contraseña incorrecta."
	case ErrSessionActive:
		return "Ya tienes una sesión activa en otro dispositivo."
	case ErrSessionInvalidated:
		return "Tu sesión ha expirado. Inicia sesión de nuevo."
	case ErrTokenRequired:
		return "Se requiere un token de autenticación."
	case ErrTokenInvalid:
		return "El token de autenticación no es válido."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "No tienes permiso para acceder a este recurso."
	case ErrStudentAccessOnly:
		return "Este recurso es exclusivo para alumnos."
	case ErrAdminAccessOnly:
		return "Este recurso es exclusivo para administradores."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "La validación falló. Revisa los datos enviados."
	case ErrInvalidID:
		return "El formato del identificador no es válido."
	case ErrInvalidPayload:
		return "El cuerpo de la petición no es válido."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Recurso no encontrado."
	case ErrConflict:
		return "El recurso ya existe."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrAttemptLimitReached:
		return "Ya alcanzaste el límite de intentos para este tipo de examen."
	case ErrInsufficientQuestions:
		return "No hay suficientes preguntas en el banco para armar el examen."
	case ErrNoActiveAttempt:
		return "No tienes ningún examen en curso."
	case ErrAttemptClosed:
		return "Este intento ya fue cerrado."
	case ErrInvalidOption:
		return "La opción elegida no pertenece a esta pregunta."
	case ErrScoringFailed:
		return "No se pudo guardar la calificación. Contacta al administrador."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "Se requiere un archivo."
	case ErrUnsupportedFile:
		return "Tipo de archivo no soportado."
	case ErrFileTooLarge:
		return "El archivo excede el tamaño máximo."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Demasiadas peticiones. Intenta de nuevo más tarde."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Ocurrió un error interno del servidor."
	default:
		return "Ocurrió un error inesperado."
	}
}
