package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func Test_checkPassword(t *testing.T) {
	LoadCommonPasswords(nopLogger{})

	tests := []struct {
		name  string
		pwd   string
		uname string
		email string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "too long", pwd: "Ab1!" + string(make([]byte, 61)), want: pwdMaxLenTag},
		{name: "whitespace", pwd: "Abc 123!xyz", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no upper", pwd: "abcd123!xyz", want: pwdComplexityTag},
		{name: "no lower", pwd: "ABCD123!XYZ", want: pwdComplexityTag},
		{name: "no digit", pwd: "Abcdefg!xyz", want: pwdComplexityTag},
		{name: "no special", pwd: "Abcd1234xyz", want: pwdComplexityTag},
		{name: "similar to name", pwd: "Johnsmith1!", uname: "John Smith", email: "js@example.com", want: pwdAttrSimTag},
		{name: "similar to email", pwd: "Jsmith@ex1", uname: "Anna", email: "jsmith@ex.com", want: pwdAttrSimTag},
		{name: "ok", pwd: "Pass-w0rd!", uname: "John Smith", email: "john@example.com", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkPassword(tt.pwd, tt.uname, tt.email))
		})
	}
}

func Test_checkPassword_common(t *testing.T) {
	saved := commonPasswords
	defer func() { commonPasswords = saved }()

	commonPasswords = []string{"letmein-2020!", "p@ssw0rd-abc"}
	assert.Equal(t, pwdNoCommonTag, checkPassword("P@ssw0rd-ABC", "", ""))
	assert.Equal(t, "", checkPassword("P@ssw0rd-XYZ", "", ""))
}

func TestRolePriority(t *testing.T) {
	assert.Greater(t, RolePriority(RoleAdmin), RolePriority(RoleLecturer))
	assert.Greater(t, RolePriority(RoleLecturer), RolePriority(RoleStudent))
	assert.Equal(t, 0, RolePriority("dean"))

	assert.True(t, IsValidRole(RoleStudent))
	assert.False(t, IsValidRole("dean"))
}

func TestUser_SetPassword(t *testing.T) {
	var usr User
	assert.NoError(t, usr.SetPassword("Pass-w0rd!"))
	assert.NoError(t, usr.CheckPassword("Pass-w0rd!"))
	assert.Error(t, usr.CheckPassword("pass-w0rd!"))
}
