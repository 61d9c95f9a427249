package dto

import (
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var uintAmountRe = regexp.MustCompile(`^[0-9]{1,78}$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("eth_addr", validateEthAddr)
		_ = v.RegisterValidation("uint_amount", validateUintAmount)
	}
}

// validateEthAddr accepts a 0x-prefixed 20-byte hex address.
func validateEthAddr(fl validator.FieldLevel) bool {
	return common.IsHexAddress(fl.Field().String())
}

// validateUintAmount accepts an unsigned decimal integer. The digit cap
// matches the widest value a 256-bit amount can print.
func validateUintAmount(fl validator.FieldLevel) bool {
	return uintAmountRe.MatchString(fl.Field().String())
}
