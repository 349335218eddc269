package model

// CustomerCoupon maps a normalized CPF to the identity that receives
// cashback for purchases made with it.  Coupons are created lazily on a
// customer's first purchase and re-pointed when the owner changes.
type CustomerCoupon struct {
	ID         uint64 `json:"id"`
	Code       string `json:"coupon_code"`
	IdentityID uint64 `json:"identity_id"`
	CPF        string `json:"cpf"`
	IsActive   bool   `json:"is_active"`
}
