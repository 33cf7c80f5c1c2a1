package core

import "testing"

func TestCheckPowPatternZeroDifficultyAlwaysPasses(t *testing.T) {
	h, err := ParseHash("FFFFFFFF00000000000000000000000000000000000000000000000000000000"[:64])
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if err := CheckPowPattern(h, 0); err != nil {
		t.Fatalf("powMin=0 should accept any hash: %v", err)
	}
}

func TestCheckPowPatternRejectsMissingLeadingZero(t *testing.T) {
	h, err := ParseHash("F000000000000000000000000000000000000000000000000000000000000000"[:64])
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if err := CheckPowPattern(h, 16); err == nil {
		t.Fatalf("powMin=16 requires one leading hex zero; F... should be rejected")
	}
}

func TestCheckPowPatternAcceptsSufficientZeros(t *testing.T) {
	h, err := ParseHash("00F0000000000000000000000000000000000000000000000000000000000000"[:64])
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if err := CheckPowPattern(h, 16); err != nil {
		t.Fatalf("one leading zero followed by any digit should satisfy powMin=16: %v", err)
	}
}

func TestCheckBlockShapeGenesisRejectsPreviousHash(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	b.PreviousHash = HashBytes([]byte("not empty"))
	if err := CheckBlockShape(b, DefaultCurrencyParams()); err == nil {
		t.Fatalf("genesis block with a previous hash should be rejected")
	}
}

func TestCheckBlockShapeGenesisRequiresParameters(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	b.Parameters = nil
	if err := CheckBlockShape(b, DefaultCurrencyParams()); err == nil {
		t.Fatalf("genesis block without Parameters should be rejected")
	}
}

func TestCheckBlockShapeNonGenesisRejectsParameters(t *testing.T) {
	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)
	b2 := testNextBlock(genesis, pk, priv)
	params := DefaultCurrencyParams()
	b2.Parameters = &params
	if err := CheckBlockShape(b2, params); err == nil {
		t.Fatalf("non-genesis block carrying Parameters should be rejected")
	}
}

func TestCheckBlockShapeNonGenesisRequiresPreviousHash(t *testing.T) {
	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)
	b2 := testNextBlock(genesis, pk, priv)
	b2.PreviousHash = ZeroHash
	if err := CheckBlockShape(b2, DefaultCurrencyParams()); err == nil {
		t.Fatalf("non-genesis block without a previous hash should be rejected")
	}
}

func TestCheckBlockShapeRejectsTimeBeforeMedian(t *testing.T) {
	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)
	b2 := testNextBlock(genesis, pk, priv)
	b2.Time = b2.MedianTime - 1
	if err := CheckBlockShape(b2, DefaultCurrencyParams()); err == nil {
		t.Fatalf("a block whose time precedes its median_time should be rejected")
	}
}

func TestCheckBlockShapeAcceptsTimeWithinWindow(t *testing.T) {
	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)
	b2 := testNextBlock(genesis, pk, priv)
	if err := CheckBlockShape(b2, DefaultCurrencyParams()); err != nil {
		t.Fatalf("an ordinary successor block should pass CheckBlockShape: %v", err)
	}
}

func TestCheckNoDuplicateEntitiesRejectsDuplicateIdentity(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	b.Identities = append(b.Identities, signedIdentity(pk, priv, "alice"))
	if err := CheckNoDuplicateEntities(b); err == nil {
		t.Fatalf("a block with two identities for the same pubkey should be rejected")
	}
}

func TestCheckNoDuplicateEntitiesRejectsDuplicateCertification(t *testing.T) {
	issuer, issuerPriv := testKeypair(t)
	receiver, _ := testKeypair(t)
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	c1 := signedCertification(issuer, issuerPriv, receiver)
	c2 := signedCertification(issuer, issuerPriv, receiver)
	b.Certifications = []*Certification{c1, c2}
	if err := CheckNoDuplicateEntities(b); err == nil {
		t.Fatalf("a block with two certifications for the same (issuer,receiver) pair should be rejected")
	}
}

func TestCheckNoDuplicateEntitiesAcceptsOrdinaryBlock(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	if err := CheckNoDuplicateEntities(b); err != nil {
		t.Fatalf("an ordinary genesis block should pass CheckNoDuplicateEntities: %v", err)
	}
}

func TestCheckEmbeddedDocumentsRejectsInvalidIdentity(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	b.Identities[0].Username = "mallory" // tamper after signing
	if err := CheckEmbeddedDocuments(b); err == nil {
		t.Fatalf("a block embedding a tampered identity should be rejected")
	}
}

func TestCheckEmbeddedDocumentsAcceptsOrdinaryBlock(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	if err := CheckEmbeddedDocuments(b); err != nil {
		t.Fatalf("an ordinary genesis block should pass CheckEmbeddedDocuments: %v", err)
	}
}

func TestCheckLocalRulesAcceptsGenesis(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	if err := CheckLocalRules(b, DefaultCurrencyParams()); err != nil {
		t.Fatalf("a well-formed genesis block should pass CheckLocalRules: %v", err)
	}
}

func TestCheckLocalRulesRejectsUnsupportedVersion(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	b.Ver = 11
	resign(b, priv)
	if err := CheckLocalRules(b, DefaultCurrencyParams()); err != ErrUnsupportedVersion {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}
