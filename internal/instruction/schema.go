package instruction

import "crypto/sha256"

// argSpec describes one numeric argument: its logical name and packed width
// in bytes. Arguments narrower than 8 bytes reject values that do not fit.
type argSpec struct {
	name  string
	width int
}

// accountSpec pins the logical account at one position together with its
// signer/writable flags.
type accountSpec struct {
	name     string
	signer   bool
	writable bool
}

// schema is the versioned layout contract for one operation kind.
type schema struct {
	discriminator []byte
	args          []argSpec
	// optionalTail, when set, names a trailing option<u64> argument that may
	// be omitted. Encoded as a presence byte followed by the value.
	optionalTail string
	// trailingPadding is the count of reserved zero bytes closing the params
	// struct. Part of the fixed layout; omitting them truncates the payload.
	trailingPadding int
	accounts        []accountSpec
}

// anchorDiscriminator derives the 8-byte instruction tag Anchor programs use:
// the first eight bytes of sha256("global:<method name>").
func anchorDiscriminator(method string) []byte {
	sum := sha256.Sum256([]byte("global:" + method))
	return sum[:8]
}

// Bonding curve discriminators extracted from the program IDL.
var (
	curveBuyDiscriminator  = []byte{0x66, 0x06, 0x3d, 0x12, 0x01, 0xda, 0xeb, 0xea}
	curveSellDiscriminator = []byte{0x33, 0xe6, 0x85, 0xa4, 0x01, 0x7f, 0x83, 0xad}
)

var schemas = map[Kind]schema{
	// AMM v4 swap. Single-byte opcode rather than an 8-byte tag; the program
	// predates the anchor convention.
	PoolSwap: {
		discriminator: []byte{9},
		args: []argSpec{
			{name: "amount_in", width: 8},
			{name: "min_amount_out", width: 8},
		},
		accounts: []accountSpec{
			{name: "token_program"},
			{name: "amm", writable: true},
			{name: "amm_authority"},
			{name: "amm_open_orders", writable: true},
			{name: "amm_target_orders", writable: true},
			{name: "pool_base_vault", writable: true},
			{name: "pool_quote_vault", writable: true},
			{name: "market_program"},
			{name: "market", writable: true},
			{name: "market_bids", writable: true},
			{name: "market_asks", writable: true},
			{name: "market_event_queue", writable: true},
			{name: "market_base_vault", writable: true},
			{name: "market_quote_vault", writable: true},
			{name: "market_vault_signer"},
			{name: "user_source_token_account", writable: true},
			{name: "user_dest_token_account", writable: true},
			{name: "user_owner", signer: true},
		},
	},

	CurveBuy: {
		discriminator: curveBuyDiscriminator,
		args: []argSpec{
			{name: "token_amount", width: 8},
			{name: "max_sol_cost", width: 8},
		},
		accounts: []accountSpec{
			{name: "global"},
			{name: "fee_recipient", writable: true},
			{name: "mint"},
			{name: "bonding_curve", writable: true},
			{name: "associated_bonding_curve", writable: true},
			{name: "user_token_account", writable: true},
			{name: "user", signer: true, writable: true},
			{name: "system_program"},
			{name: "token_program"},
			{name: "rent"},
			{name: "event_authority"},
			{name: "program"},
		},
	},

	CurveSell: {
		discriminator: curveSellDiscriminator,
		args: []argSpec{
			{name: "token_amount", width: 8},
			{name: "min_sol_output", width: 8},
		},
		accounts: []accountSpec{
			{name: "global"},
			{name: "fee_recipient", writable: true},
			{name: "mint"},
			{name: "bonding_curve", writable: true},
			{name: "associated_bonding_curve", writable: true},
			{name: "user_token_account", writable: true},
			{name: "user", signer: true, writable: true},
			{name: "system_program"},
			{name: "associated_token_program"},
			{name: "token_program"},
			{name: "event_authority"},
			{name: "program"},
		},
	},

	PoolInit: {
		discriminator: anchorDiscriminator("initialize_customizable_permissionless_lb_pair"),
		args: []argSpec{
			{name: "active_id", width: 4},
			{name: "bin_step", width: 2},
			{name: "base_factor", width: 2},
			{name: "activation_type", width: 1},
			{name: "has_alpha_vault", width: 1},
		},
		optionalTail:    "activation_point",
		trailingPadding: 64,
		accounts: []accountSpec{
			{name: "lb_pair", writable: true},
			{name: "bin_array_bitmap_extension", writable: true},
			{name: "token_mint_x"},
			{name: "token_mint_y"},
			{name: "reserve_x", writable: true},
			{name: "reserve_y", writable: true},
			{name: "oracle", writable: true},
			{name: "user_token_x"},
			{name: "funder", signer: true, writable: true},
			{name: "token_program"},
			{name: "system_program"},
			{name: "rent"},
		},
	},

	// SPL token opcodes are single bytes.
	BurnTokens: {
		discriminator: []byte{8},
		args: []argSpec{
			{name: "amount", width: 8},
		},
		accounts: []accountSpec{
			{name: "token_account", writable: true},
			{name: "mint", writable: true},
			{name: "owner", signer: true},
		},
	},

	CloseAccount: {
		discriminator: []byte{9},
		accounts: []accountSpec{
			{name: "token_account", writable: true},
			{name: "destination", writable: true},
			{name: "owner", signer: true},
		},
	},
}
