package utils

// token types
const ACCESS_TYPE = "access"
const REFRESH_TYPE = "refresh"

// error codes returned to clients
const VALIDATION_ERROR = "VALIDATION_ERROR"
const DUPLICATE_RESOURCE = "DUPLICATE_RESOURCE"
const EMAIL_ALREADY_EXISTS = "EMAIL_ALREADY_EXISTS"
const USER_NOT_FOUND = "USER_NOT_FOUND"
const INVALID_CREDENTIALS = "INVALID_CREDENTIALS"
const INVALID_CURRENT_PASSWORD = "INVALID_CURRENT_PASSWORD"
const ACCOUNT_LOCKED = "ACCOUNT_LOCKED"
const USER_INACTIVE = "USER_INACTIVE"
const INVALID_OR_EXPIRED_TOKEN = "INVALID_OR_EXPIRED_TOKEN"
const WEAK_PASSWORD = "WEAK_PASSWORD"
const PASSWORD_REUSED = "PASSWORD_REUSED"
const INVALID_TOKEN = "INVALID_TOKEN"
const AUTHENTICATION_REQUIRED = "AUTHENTICATION_REQUIRED"
const INSUFFICIENT_PERMISSIONS = "INSUFFICIENT_PERMISSIONS"
const RATE_LIMITED = "RATE_LIMITED"
const INTERNAL_ERROR = "INTERNAL_ERROR"

// default messages, one per code
const GENERIC_VALIDATION_ERROR = "The request is invalid."
const GENERIC_DUPLICATE_ERROR = "A record with the same unique data already exists."
const EMAIL_TAKEN_SIGNUP_ERROR = "Someone might have signed up with that email before. Please try logging in!"
const USER_NOT_FOUND_ERROR = "User not found."
const GENERIC_LOGIN_ERROR = "Invalid email or password."
const CURRENT_PASSWORD_ERROR = "The current password is incorrect."
const ACCOUNT_LOCKED_ERROR = "Too many failed login attempts."
const USER_INACTIVE_ERROR = "This account has been deactivated."
const GENERIC_PASSWORD_RESET_ERROR = "The reset token is invalid or has expired."
const WEAK_PASSWORD_ERROR = "The new password does not meet the password rules."
const PASSWORD_REUSED_ERROR = "The new password was used recently. Please choose a different one."
const INVALID_TOKEN_ERROR = "The token is invalid or has expired."
const AUTHENTICATION_REQUIRED_ERROR = "Authentication required."
const INSUFFICIENT_PERMISSIONS_ERROR = "Insufficient permissions."
const GENERIC_RATE_LIMIT_ERROR = "Too many requests. Please try again later."
const SERVER_DOWN = "We had some trouble processing your request. Please try again!"

const PASSWORD_RESET_REQUESTED = "If the email is registered, a password reset link has been sent."
const PASSWORD_CHANGED = "Password changed successfully."
