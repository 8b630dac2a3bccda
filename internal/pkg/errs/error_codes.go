/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Messaging Business Logic Errors
const (
	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2001

	// ErrMessageTypeInvalid indicates that the message type is neither text nor image.
	ErrMessageTypeInvalid = 2002

	// ErrPartnerRequired indicates that a history query was missing the partner identity.
	ErrPartnerRequired = 2003

	// ErrHistoryQueryFailed indicates that the persisted conversation could not be loaded.
	ErrHistoryQueryFailed = 2004

	// ErrImageTypeInvalid indicates that an image upload has a disallowed or inconsistent file type.
	ErrImageTypeInvalid = 2101

	// ErrImageSizeTooLarge indicates that an image upload exceeded the size limit.
	ErrImageSizeTooLarge = 2102
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates that the caller has no valid session.
	ErrUnauthorized = 3001

	// ErrEmailDomainNotAllowed indicates that the login email's domain is not on the allow-list.
	ErrEmailDomainNotAllowed = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates that the object storage service rejected an operation.
	ErrFileStorageFailed = 5001
)
