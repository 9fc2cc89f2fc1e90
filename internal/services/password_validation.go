package services

import (
	"bufio"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/AI2HU/bulletcalc/internal/models"
)

//go:embed common_passwords.txt
var commonPasswordList string

// MaxPasswordBytes is the longest password bcrypt accepts
const MaxPasswordBytes = 72

var (
	commonPasswords = loadCommonPasswords(commonPasswordList)
	attributeSplit  = regexp.MustCompile(`\W+`)
)

func loadCommonPasswords(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			set[strings.ToLower(line)] = struct{}{}
		}
	}
	return set
}

// PasswordValidator checks one password rule. user may be nil when the
// account does not exist yet.
type PasswordValidator interface {
	Validate(password string, user *models.User) error
}

// PasswordValidatorFunc adapts a function to PasswordValidator
type PasswordValidatorFunc func(password string, user *models.User) error

func (f PasswordValidatorFunc) Validate(password string, user *models.User) error {
	return f(password, user)
}

// DefaultPasswordValidators returns the four standard validators in order
func DefaultPasswordValidators(minLength int) []PasswordValidator {
	return []PasswordValidator{
		PasswordValidatorFunc(userAttributeSimilarity),
		MinimumLength(minLength),
		PasswordValidatorFunc(commonPassword),
		PasswordValidatorFunc(numericPassword),
	}
}

// ValidatePassword runs every validator and collects all failures
func ValidatePassword(password string, user *models.User, validators []PasswordValidator) error {
	var problems []string
	if len(password) > MaxPasswordBytes {
		problems = append(problems, fmt.Sprintf("this password is too long, it must contain at most %d bytes", MaxPasswordBytes))
	}
	for _, v := range validators {
		if err := v.Validate(password, user); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return &PasswordError{Problems: problems}
	}
	return nil
}

// userAttributeSimilarity rejects passwords equal to the username or email
// address, or containing any username or email local-part fragment of three
// or more characters.
func userAttributeSimilarity(password string, user *models.User) error {
	if user == nil {
		return nil
	}
	lower := strings.ToLower(password)

	check := func(name, value, fragments string) error {
		value = strings.ToLower(value)
		if value == "" {
			return nil
		}
		if lower == value {
			return fmt.Errorf("the password is too similar to the %s", name)
		}
		for _, part := range attributeSplit.Split(strings.ToLower(fragments), -1) {
			if len(part) >= 3 && strings.Contains(lower, part) {
				return fmt.Errorf("the password is too similar to the %s", name)
			}
		}
		return nil
	}

	if err := check("username", user.Username, user.Username); err != nil {
		return err
	}
	local, _, _ := strings.Cut(user.Email, "@")
	return check("email address", user.Email, local)
}

// MinimumLength rejects passwords shorter than n characters
func MinimumLength(n int) PasswordValidator {
	return PasswordValidatorFunc(func(password string, _ *models.User) error {
		if len([]rune(password)) < n {
			return fmt.Errorf("this password is too short, it must contain at least %d characters", n)
		}
		return nil
	})
}

func commonPassword(password string, _ *models.User) error {
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		return fmt.Errorf("this password is too common")
	}
	return nil
}

func numericPassword(password string, _ *models.User) error {
	if password == "" {
		return nil
	}
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return nil
		}
	}
	return fmt.Errorf("this password is entirely numeric")
}
